// Package core defines the shared language of the DysRegNet explorer.
//
// This package contains:
//   - Domain entities (ExpressionMatrix, Metadata, Network, Result)
//   - The assembled NeighborhoodGraph and its statistics
//   - Analysis Parameters with their defaults
//   - Error kinds shared by every layer (ErrInputValidation, ErrCacheMiss, ...)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
