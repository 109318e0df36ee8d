package defaultcrypto

import "github.com/tearust/gluon-node/internal/cryptoport/defaultcrypto/shamir"

// shamirScheme adapts shamir.Scheme to cryptoport.ShamirScheme.
type shamirScheme struct{ shamir.Scheme }
