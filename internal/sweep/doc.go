// Package sweep expands a parameter sweep into run directories.
//
// An edits document maps parameter names to candidate values:
//
//	a: [1, 2]
//	c: [3, 4]
//
// [FromDocument] turns it into a [Spec], [Spec.Combinations] enumerates
// the cartesian product in odometer order (a=1,c=3; a=1,c=4; a=2,c=3;
// a=2,c=4), and [NewPlan] names each [Combination] ("a_1_c_3", ...)
// while checking that no two names collide.
//
// Combinations are applied to a base document with [Combination.Apply],
// which never modifies the base.
package sweep
