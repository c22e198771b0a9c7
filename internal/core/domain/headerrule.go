package domain

// HeaderRule rewrites an HTTP header set in three passes, applied in this
// order:
//
//  1. DropAll discards every inbound header outright; otherwise Drop removes
//     the named headers case-insensitively.
//  2. Add sets a header only if it is not already present.
//  3. Force overwrites a header unconditionally, regardless of what survived
//     the first two passes.
type HeaderRule struct {
	DropAll bool
	Drop    []string
	Add     map[string]string
	Force   map[string]string
}
