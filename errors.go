// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import "errors"

var (
	// ErrMissingName is returned when an axiom, property or instance row
	// has no name.
	ErrMissingName = errors.New("jaal: missing name")

	// ErrInvalidAxiom is returned for malformed class axioms, property
	// definitions or property assertions.
	ErrInvalidAxiom = errors.New("jaal: invalid axiom")

	// ErrInvalidLiteral is returned when a value is not a valid lexical
	// form of its datatype.
	ErrInvalidLiteral = errors.New("jaal: invalid literal")

	// ErrUnknownFormat is returned when an ontology file format cannot
	// be determined.
	ErrUnknownFormat = errors.New("jaal: unknown ontology format")
)
