// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal_test

import (
	"fmt"

	"github.com/kortschak/jaal"
)

var subClassOf = jaal.Via("<" + jaal.RDFS + "subClassOf>")

func ExampleQuery_restriction() {
	// Find the classes restricted to having some tomato topping
	// by following the anonymous restriction back to the classes
	// that are sub-classes of it.
	//
	//  _:r <owl:someValuesFrom> <tomato_topping> .
	//  <margherita> <rdfs:subClassOf> _:r .
	pizzas := g.Query(class("tomato_topping")).
		In(jaal.Via("<" + jaal.OWL + "someValuesFrom>")).
		In(subClassOf).
		Unique()

	for _, name := range pizzas.Names() {
		fmt.Println(name)
	}

	// Output:
	// margherita
}

func ExampleQuery_Not() {
	// Find the direct sub-classes of food that are not pizzas.
	food := g.Query(class("food")).In(subClassOf)
	pizza := g.Query(class("pizza"))

	for _, name := range food.Not(pizza).Unique().Names() {
		fmt.Println(name)
	}

	// Unordered output:
	// pizza_base
	// pizza_topping
}

func ExampleQuery_Or() {
	// Find the named super-classes of margherita and of the mushroom
	// topping.
	margherita := g.Query(class("margherita")).Out(subClassOf).Named()
	mushroom := g.Query(class("mushroom_topping")).Out(subClassOf).Named()

	for _, name := range margherita.Or(mushroom).Names() {
		fmt.Println(name)
	}

	// Unordered output:
	// pizza
	// pizza_topping
}
