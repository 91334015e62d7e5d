package pipeline

import "github.com/user/pawfeed/pkg/media"

// ItemStage advances an item by one state. It returns the same item on
// success; on failure the item is already in Error.
type ItemStage = Stage[*media.Item, *media.Item]
