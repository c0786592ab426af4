package polynomial

import "errors"

// ErrZeroDenominator is returned by LagrangeCoeff when myIndex duplicates
// another index in the index set: a caller bug, since index sets must be
// distinct.
var ErrZeroDenominator = errors.New("polynomial: zero denominator, duplicate index in index set")

// ErrLengthMismatch is returned by DotProduct when its operands have
// different lengths.
var ErrLengthMismatch = errors.New("polynomial: length mismatch")
