// Package ignore converts ignore-file lines into shell-style glob patterns
// and matches project-relative paths against them.
//
// The rules approximate .gitignore without reproducing it. A line without a
// slash matches at any depth, a line ending in a slash matches a directory
// and everything below it, and a line with an inner slash is matched against
// the path relative to the project root. Negation, nested ignore files and
// directory-scoped rules are not supported.
//
// Globs follow fnmatch semantics, so "*" also matches "/":
//
//	matcher := ignore.NewMatcher("build/", "*.log")
//	matcher.Matches("build")           // true
//	matcher.Matches("src/build/out.o") // true
//	matcher.Matches("logs/app.log")    // true
package ignore
