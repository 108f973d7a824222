package config

// SourceFileExt is the canonical source file extension for the
// reference CLI surface.
const SourceFileExt = ".py"

// SourceFileExtensions are recognized source file extensions.
var SourceFileExtensions = []string{".py", ".svms"}

// BinaryFileExt is the compiled SVML container's extension.
const BinaryFileExt = ".svm"

// DefaultMemoizationParamThreshold is the default maximum parameter
// count for a recursive function to be flagged needs_memoization.
const DefaultMemoizationParamThreshold = 10
