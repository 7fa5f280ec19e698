package roamdb

import (
	"fmt"
	"strings"
)

// EscapeString escapes quotes for safe embedding in Datalog strings.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// QueryPageUIDByTitle finds the uid of the page titled title.
func QueryPageUIDByTitle(title string) string {
	return fmt.Sprintf(`[:find ?uid :where [?p :node/title "%s"] [?p :block/uid ?uid]]`, EscapeString(title))
}

// QueryPageTitleByUID finds the title of the page with uid. Blocks have no
// title, so only pages match.
func QueryPageTitleByUID(uid string) string {
	return fmt.Sprintf(`[:find ?title :where [?p :block/uid "%s"] [?p :node/title ?title]]`, EscapeString(uid))
}

// QueryChildren lists the uid and order of the direct children of the page
// or block with uid.
func QueryChildren(uid string) string {
	return fmt.Sprintf(`[:find ?uid ?order
		:where
		[?p :block/uid "%s"]
		[?p :block/children ?c]
		[?c :block/uid ?uid]
		[?c :block/order ?order]]`, EscapeString(uid))
}

// QueryEntityByUID finds the entity id of a page or block.
func QueryEntityByUID(uid string) string {
	return fmt.Sprintf(`[:find ?e :where [?e :block/uid "%s"]]`, EscapeString(uid))
}

// TreeSelector pulls an entity with its whole subtree.
const TreeSelector = "[:node/title :block/uid :block/string :block/order :block/heading {:block/children ...}]"
