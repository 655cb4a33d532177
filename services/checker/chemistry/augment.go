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

// EmptyASTMessage is the error reported when there is no tree to augment.
const EmptyASTMessage = "The provided AST is empty."

// Augment flattens the chained parser output into the shape Check expects.
//
// # Description
//
// Compound tails, ion chains and expression rests are collected into
// ordered slices. The tail is flattened first and the head appended after
// it, which restores left-to-right source order. Bracket depth is pushed
// down from the root: a bracket's inner compound sits one level deeper than
// the compound holding the bracket, and every element of a compound is
// marked PartOfCompound.
//
// A new tree is returned; root is not modified. Augmenting an already
// augmented tree returns an equal tree.
//
// # Inputs
//
//   - root: The parsed tree. May be nil.
//
// # Outputs
//
//   - Node: The augmented tree, or an *ErrorNode when root is nil.
func Augment(root Node) Node {
	if root == nil {
		return &ErrorNode{Message: EmptyASTMessage, Expected: []string{""}}
	}
	return augmentNode(root, 0)
}

func augmentNode(n Node, depth int) Node {
	switch node := n.(type) {
	case *Compound:
		return augmentCompound(node, depth)
	case *Ion:
		return augmentIon(node, depth)
	case *Expression:
		return augmentExpression(node)
	case *Bracket:
		return augmentBracket(node, depth)
	case *Term:
		return augmentTerm(node)
	case *Statement:
		return &Statement{
			Left:  augmentOptional(node.Left, 0),
			Right: augmentOptional(node.Right, 0),
			Arrow: node.Arrow,
		}
	case *Element:
		out := *node
		out.BracketDepth = depth
		return &out
	case *ErrorNode:
		out := *node
		return &out
	case *Electron:
		return &Electron{}
	}
	return n
}

func augmentOptional(n Node, depth int) Node {
	if n == nil {
		return nil
	}
	return augmentNode(n, depth)
}

func augmentCompound(c *Compound, depth int) *Compound {
	var elements []Node
	if c.Head == nil && c.Tail == nil {
		for _, child := range c.Elements {
			elements = append(elements, augmentCompoundChild(child, depth))
		}
		return &Compound{Elements: elements, BracketDepth: depth}
	}

	if tail, ok := c.Tail.(*Compound); ok {
		elements = append(elements, augmentCompound(tail, depth).Elements...)
	} else if c.Tail != nil {
		elements = append(elements, augmentCompoundChild(c.Tail, depth))
	}
	if c.Head != nil {
		elements = append(elements, augmentCompoundChild(c.Head, depth))
	}
	return &Compound{Elements: elements, BracketDepth: depth}
}

func augmentCompoundChild(n Node, depth int) Node {
	out := augmentNode(n, depth)
	if el, ok := out.(*Element); ok {
		el.PartOfCompound = true
	}
	return out
}

func augmentBracket(b *Bracket, depth int) *Bracket {
	out := &Bracket{Shape: b.Shape, Coeff: b.Coeff, BracketDepth: depth}
	if b.Compound != nil {
		out.Compound = augmentCompound(b.Compound, depth+1)
	}
	return out
}

func augmentIon(i *Ion, depth int) *Ion {
	var members []IonMember
	if i.Molecule == nil && i.Chain == nil {
		for _, m := range i.Molecules {
			members = append(members, IonMember{Molecule: augmentOptional(m.Molecule, depth), Charge: m.Charge})
		}
		return &Ion{Molecules: members}
	}

	if chain, ok := i.Chain.(*Ion); ok {
		members = append(members, augmentIon(chain, depth).Molecules...)
	} else if i.Chain != nil {
		members = append(members, IonMember{Molecule: augmentNode(i.Chain, depth)})
	}
	if i.Molecule != nil {
		members = append(members, IonMember{Molecule: augmentNode(i.Molecule, depth), Charge: i.Charge})
	}
	return &Ion{Molecules: members}
}

func augmentExpression(e *Expression) *Expression {
	var terms []*Term
	if e.Term == nil && e.Rest == nil {
		for _, t := range e.Terms {
			if t != nil {
				terms = append(terms, augmentTerm(t))
			}
		}
		return &Expression{Terms: terms}
	}

	switch rest := e.Rest.(type) {
	case *Expression:
		terms = append(terms, augmentExpression(rest).Terms...)
	case *Term:
		terms = append(terms, augmentTerm(rest))
	}
	if e.Term != nil {
		terms = append(terms, augmentTerm(e.Term))
	}
	return &Expression{Terms: terms}
}

func augmentTerm(t *Term) *Term {
	out := *t
	out.Value = augmentOptional(t.Value, 0)
	return &out
}
