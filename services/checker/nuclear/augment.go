// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package nuclear

// EmptyASTMessage is the error reported when there is no tree to augment.
const EmptyASTMessage = "The provided AST is empty."

// Augment flattens expression rests into ordered term slices.
//
// A new tree is returned and root is left untouched. Augmenting an
// augmented tree returns an equal tree. A nil root yields an *ErrorNode.
func Augment(root Node) Node {
	if root == nil {
		return &ErrorNode{Message: EmptyASTMessage, Expected: []string{""}}
	}
	return augmentNode(root)
}

func augmentNode(n Node) Node {
	switch node := n.(type) {
	case *Expression:
		return augmentExpression(node)
	case *Statement:
		out := &Statement{}
		if node.Left != nil {
			out.Left = augmentNode(node.Left)
		}
		if node.Right != nil {
			out.Right = augmentNode(node.Right)
		}
		return out
	case *Term:
		return copyTerm(node)
	case *Particle:
		out := *node
		return &out
	case *Isotope:
		out := *node
		return &out
	case *ErrorNode:
		out := *node
		return &out
	}
	return n
}

func augmentExpression(e *Expression) *Expression {
	var terms []*Term
	if e.Term == nil && e.Rest == nil {
		for _, t := range e.Terms {
			if t != nil {
				terms = append(terms, copyTerm(t))
			}
		}
		return &Expression{Terms: terms}
	}

	switch rest := e.Rest.(type) {
	case *Expression:
		terms = append(terms, augmentExpression(rest).Terms...)
	case *Term:
		terms = append(terms, copyTerm(rest))
	}
	if e.Term != nil {
		terms = append(terms, copyTerm(e.Term))
	}
	return &Expression{Terms: terms}
}

func copyTerm(t *Term) *Term {
	out := *t
	if t.Value != nil {
		out.Value = augmentNode(t.Value)
	}
	return &out
}
