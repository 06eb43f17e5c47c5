// Package tabtree is the ordered tab hierarchy behind the sidebar: an arena of
// tabs keyed by id, the flattener that turns it into display rows, and the
// resolver that turns drag gestures into structural mutations.
//
// Everything here is pure. Persistence and the active-tab state live in the
// service package.
package tabtree
