package lineshape_test

import (
	"fmt"

	"github.com/robertsparkes/raman-fitting-pvc/lineshape"
)

func ExampleShape() {
	// Unit height at the peak center, symmetric and strictly
	// decreasing away from it.
	fmt.Printf("center: %.3f\n", lineshape.Shape(0, 8))
	fmt.Printf("symmetric: %t\n", lineshape.Shape(-12.5, 8) == lineshape.Shape(12.5, 8))
	fmt.Printf("decreasing: %t\n", lineshape.Shape(4, 8) > lineshape.Shape(8, 8))

	// Output:
	// center: 1.000
	// symmetric: true
	// decreasing: true
}
