// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chemistry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AleutianAI/nuchem/services/checker/fraction"
)

// ErrUnknownNodeType is returned when a node's "type" field is not a
// chemistry kind.
var ErrUnknownNodeType = errors.New("unknown chemistry node type")

// AST is the grammar service envelope: {"result": node}.
type AST struct {
	Result Node
}

// MarshalJSON implements json.Marshaler.
func (a AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Result Node `json:"result"`
	}{a.Result})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AST) UnmarshalJSON(data []byte) error {
	var wire struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decoding chemistry AST: %w", err)
	}
	n, err := Decode(wire.Result)
	if err != nil {
		return err
	}
	a.Result = n
	return nil
}

// Decode parses one node in the grammar service's wire format.
//
// Description:
//
//	The "type" field selects the variant. Both the chained form emitted by
//	the grammar service and the flattened form produced by Augment are
//	accepted. JSON null decodes to a nil Node.
//
// Inputs:
//
//	data - The JSON encoding of a node.
//
// Outputs:
//
//	Node - The decoded node, nil for null.
//	error - Non-nil on malformed JSON or an unknown type.
func Decode(data []byte) (Node, error) {
	if isNull(data) {
		return nil, nil
	}

	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding chemistry node: %w", err)
	}

	switch head.Type {
	case KindError:
		var w errorWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding error node: %w", err)
		}
		return &ErrorNode{Message: w.Value, Expected: w.Expected, Loc: w.Loc}, nil

	case KindElement:
		var w elementWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding element: %w", err)
		}
		return &Element{
			Symbol:         w.Value,
			Coeff:          w.Coeff,
			BracketDepth:   w.BracketDepth,
			PartOfCompound: w.PartOfCompound,
		}, nil

	case KindBracket:
		var w bracketWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding bracket: %w", err)
		}
		inner, err := decodeAs[*Compound](w.Compound, "bracket compound")
		if err != nil {
			return nil, err
		}
		return &Bracket{Shape: w.Bracket, Compound: inner, Coeff: w.Coeff, BracketDepth: w.BracketDepth}, nil

	case KindCompound:
		var w compoundWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding compound: %w", err)
		}
		c := &Compound{BracketDepth: w.BracketDepth}
		var err error
		if c.Head, err = Decode(w.Head); err != nil {
			return nil, err
		}
		if c.Tail, err = Decode(w.Tail); err != nil {
			return nil, err
		}
		if w.Elements != nil {
			c.Elements = make([]Node, 0, len(w.Elements))
			for _, raw := range w.Elements {
				child, err := Decode(raw)
				if err != nil {
					return nil, err
				}
				c.Elements = append(c.Elements, child)
			}
		}
		return c, nil

	case KindIon:
		var w ionWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding ion: %w", err)
		}
		ion := &Ion{Charge: w.Charge}
		var err error
		if ion.Molecule, err = Decode(w.Molecule); err != nil {
			return nil, err
		}
		if ion.Chain, err = Decode(w.Chain); err != nil {
			return nil, err
		}
		if w.Molecules != nil {
			ion.Molecules = make([]IonMember, 0, len(w.Molecules))
			for _, pair := range w.Molecules {
				mol, err := Decode(pair[0])
				if err != nil {
					return nil, err
				}
				var charge int
				if err := json.Unmarshal(pair[1], &charge); err != nil {
					return nil, fmt.Errorf("decoding ion charge: %w", err)
				}
				ion.Molecules = append(ion.Molecules, IonMember{Molecule: mol, Charge: charge})
			}
		}
		return ion, nil

	case KindElectron:
		return &Electron{}, nil

	case KindTerm:
		var w termWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding term: %w", err)
		}
		value, err := Decode(w.Value)
		if err != nil {
			return nil, err
		}
		coeff := fraction.One()
		if w.Coeff != nil {
			coeff = *w.Coeff
		}
		return &Term{
			Value:      value,
			Coeff:      coeff,
			State:      w.State,
			Hydrate:    w.Hydrate,
			IsElectron: w.IsElectron,
			IsHydrate:  w.IsHydrate,
		}, nil

	case KindExpression:
		var w exprWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding expression: %w", err)
		}
		e := &Expression{}
		var err error
		if e.Term, err = decodeAs[*Term](w.Term, "expression term"); err != nil {
			return nil, err
		}
		if e.Rest, err = Decode(w.Rest); err != nil {
			return nil, err
		}
		if w.Terms != nil {
			e.Terms = make([]*Term, 0, len(w.Terms))
			for _, raw := range w.Terms {
				t, err := decodeAs[*Term](raw, "expression terms")
				if err != nil {
					return nil, err
				}
				e.Terms = append(e.Terms, t)
			}
		}
		return e, nil

	case KindStatement:
		var w statementWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding statement: %w", err)
		}
		s := &Statement{Arrow: w.Arrow}
		var err error
		if s.Left, err = Decode(w.Left); err != nil {
			return nil, err
		}
		if s.Right, err = Decode(w.Right); err != nil {
			return nil, err
		}
		return s, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, head.Type)
}

// decodeAs decodes data and requires the result to be a T (or null).
func decodeAs[T Node](data json.RawMessage, field string) (T, error) {
	var zero T
	n, err := Decode(data)
	if err != nil || n == nil {
		return zero, err
	}
	t, ok := n.(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected node type %q", field, n.Kind())
	}
	return t, nil
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type errorWire struct {
	Type     Kind     `json:"type"`
	Value    string   `json:"value"`
	Expected []string `json:"expected"`
	Loc      [2]int   `json:"loc"`
}

type elementWire struct {
	Type           Kind   `json:"type"`
	Value          string `json:"value"`
	Coeff          int    `json:"coeff"`
	BracketDepth   int    `json:"bracketDepth,omitempty"`
	PartOfCompound bool   `json:"partOfCompound,omitempty"`
}

type bracketWire struct {
	Type         Kind            `json:"type"`
	Bracket      Shape           `json:"bracket"`
	Compound     json.RawMessage `json:"compound"`
	Coeff        int             `json:"coeff"`
	BracketDepth int             `json:"bracketDepth,omitempty"`
}

type compoundWire struct {
	Type         Kind              `json:"type"`
	Head         json.RawMessage   `json:"head,omitempty"`
	Tail         json.RawMessage   `json:"tail,omitempty"`
	Elements     []json.RawMessage `json:"elements,omitempty"`
	BracketDepth int               `json:"bracketDepth,omitempty"`
}

type ionWire struct {
	Type      Kind                 `json:"type"`
	Molecule  json.RawMessage      `json:"molecule,omitempty"`
	Charge    int                  `json:"charge"`
	Chain     json.RawMessage      `json:"chain,omitempty"`
	Molecules [][2]json.RawMessage `json:"molecules,omitempty"`
}

type termWire struct {
	Type       Kind               `json:"type"`
	Value      json.RawMessage    `json:"value"`
	Coeff      *fraction.Fraction `json:"coeff"`
	State      State              `json:"state"`
	Hydrate    int                `json:"hydrate"`
	IsElectron bool               `json:"isElectron"`
	IsHydrate  bool               `json:"isHydrate"`
}

type exprWire struct {
	Type  Kind              `json:"type"`
	Term  json.RawMessage   `json:"term,omitempty"`
	Rest  json.RawMessage   `json:"rest,omitempty"`
	Terms []json.RawMessage `json:"terms,omitempty"`
}

type statementWire struct {
	Type  Kind            `json:"type"`
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
	Arrow Arrow           `json:"arrow"`
}

// =============================================================================
// ENCODING
// =============================================================================

// MarshalJSON implements json.Marshaler.
func (e *ErrorNode) MarshalJSON() ([]byte, error) {
	expected := e.Expected
	if expected == nil {
		expected = []string{}
	}
	return json.Marshal(errorWire{Type: KindError, Value: e.Message, Expected: expected, Loc: e.Loc})
}

// MarshalJSON implements json.Marshaler.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(elementWire{
		Type:           KindElement,
		Value:          e.Symbol,
		Coeff:          e.Coeff,
		BracketDepth:   e.BracketDepth,
		PartOfCompound: e.PartOfCompound,
	})
}

// MarshalJSON implements json.Marshaler.
func (b *Bracket) MarshalJSON() ([]byte, error) {
	inner, err := encodeNode(b.Compound)
	if err != nil {
		return nil, err
	}
	return json.Marshal(bracketWire{
		Type:         KindBracket,
		Bracket:      b.Shape,
		Compound:     inner,
		Coeff:        b.Coeff,
		BracketDepth: b.BracketDepth,
	})
}

// MarshalJSON implements json.Marshaler.
func (c *Compound) MarshalJSON() ([]byte, error) {
	w := compoundWire{Type: KindCompound, BracketDepth: c.BracketDepth}
	var err error
	if w.Head, err = encodeOptional(c.Head); err != nil {
		return nil, err
	}
	if w.Tail, err = encodeOptional(c.Tail); err != nil {
		return nil, err
	}
	for _, child := range c.Elements {
		raw, err := encodeNode(child)
		if err != nil {
			return nil, err
		}
		w.Elements = append(w.Elements, raw)
	}
	return json.Marshal(w)
}

// MarshalJSON implements json.Marshaler.
func (i *Ion) MarshalJSON() ([]byte, error) {
	w := ionWire{Type: KindIon, Charge: i.Charge}
	var err error
	if w.Molecule, err = encodeOptional(i.Molecule); err != nil {
		return nil, err
	}
	if w.Chain, err = encodeOptional(i.Chain); err != nil {
		return nil, err
	}
	for _, m := range i.Molecules {
		mol, err := encodeNode(m.Molecule)
		if err != nil {
			return nil, err
		}
		charge, err := json.Marshal(m.Charge)
		if err != nil {
			return nil, err
		}
		w.Molecules = append(w.Molecules, [2]json.RawMessage{mol, charge})
	}
	return json.Marshal(w)
}

// MarshalJSON implements json.Marshaler.
func (*Electron) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Kind `json:"type"`
	}{KindElectron})
}

// MarshalJSON implements json.Marshaler.
func (t *Term) MarshalJSON() ([]byte, error) {
	value, err := encodeNode(t.Value)
	if err != nil {
		return nil, err
	}
	coeff := t.Coeff
	return json.Marshal(termWire{
		Type:       KindTerm,
		Value:      value,
		Coeff:      &coeff,
		State:      t.State,
		Hydrate:    t.Hydrate,
		IsElectron: t.IsElectron,
		IsHydrate:  t.IsHydrate,
	})
}

// MarshalJSON implements json.Marshaler.
func (e *Expression) MarshalJSON() ([]byte, error) {
	w := exprWire{Type: KindExpression}
	var err error
	if e.Term != nil {
		if w.Term, err = encodeNode(e.Term); err != nil {
			return nil, err
		}
	}
	if w.Rest, err = encodeOptional(e.Rest); err != nil {
		return nil, err
	}
	for _, t := range e.Terms {
		raw, err := encodeNode(t)
		if err != nil {
			return nil, err
		}
		w.Terms = append(w.Terms, raw)
	}
	return json.Marshal(w)
}

// MarshalJSON implements json.Marshaler.
func (s *Statement) MarshalJSON() ([]byte, error) {
	left, err := encodeNode(s.Left)
	if err != nil {
		return nil, err
	}
	right, err := encodeNode(s.Right)
	if err != nil {
		return nil, err
	}
	return json.Marshal(statementWire{Type: KindStatement, Left: left, Right: right, Arrow: s.Arrow})
}

// encodeNode encodes n, writing null for a nil node.
func encodeNode(n Node) (json.RawMessage, error) {
	if n == nil {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(n)
}

// encodeOptional encodes n, or returns nil so omitempty drops the field.
func encodeOptional(n Node) (json.RawMessage, error) {
	if n == nil {
		return nil, nil
	}
	return json.Marshal(n)
}
