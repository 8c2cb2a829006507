package triangulate

import "github.com/rotisserie/eris"

// ErrInsufficientData is returned by Summarize when fewer than two matched
// pairs exist. A regression over fewer points is undefined, and callers must
// not let it reach reporting or plotting.
var ErrInsufficientData = eris.New("insufficient data: regression requires at least 2 matched pairs")

// ErrZeroVariance is returned by Summarize when every professional value in
// the pair set is identical, leaving the slope undefined.
var ErrZeroVariance = eris.New("zero variance in professional values: slope is undefined")
