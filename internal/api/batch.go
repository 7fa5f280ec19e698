package api

import "strconv"

// BatchBuilder collects write actions for a single batch-actions request.
// Entities created without a uid get a tempid: a negative integer that
// later actions in the same batch can use as a parent reference.
type BatchBuilder struct {
	actions    []map[string]interface{}
	nextTempID int
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		actions:    make([]map[string]interface{}, 0),
		nextTempID: -1,
	}
}

func (b *BatchBuilder) allocateTempID() int {
	id := b.nextTempID
	b.nextTempID--
	return id
}

// reference returns the value to send for uid and the string later actions
// use to point at it.
func (b *BatchBuilder) reference(uid string) (interface{}, string) {
	if uid != "" {
		return uid, uid
	}
	tempID := b.allocateTempID()
	return tempID, strconv.Itoa(tempID)
}

// CreatePage adds a create-page action and returns its uid reference.
func (b *BatchBuilder) CreatePage(page Page) string {
	uidValue, ref := b.reference(page.UID)
	b.actions = append(b.actions, map[string]interface{}{
		"action": string(ActionCreatePage),
		"page": map[string]interface{}{
			"uid":   uidValue,
			"title": page.Title,
		},
	})
	return ref
}

// CreateBlock adds a create-block action under parentUID at order and
// returns the block's uid reference. parentUID may be a tempid reference.
func (b *BatchBuilder) CreateBlock(parentUID string, order interface{}, block Block) string {
	uidValue, ref := b.reference(block.UID)

	blockMap := map[string]interface{}{
		"uid":    uidValue,
		"string": block.String,
	}
	if block.Heading != nil {
		blockMap["heading"] = *block.Heading
	}
	if block.Open != nil {
		blockMap["open"] = *block.Open
	}

	b.actions = append(b.actions, map[string]interface{}{
		"action": string(ActionCreateBlock),
		"location": map[string]interface{}{
			"parent-uid": b.parseUID(parentUID),
			"order":      order,
		},
		"block": blockMap,
	})
	return ref
}

// DeletePage adds a delete-page action.
func (b *BatchBuilder) DeletePage(uid string) {
	b.actions = append(b.actions, map[string]interface{}{
		"action": string(ActionDeletePage),
		"page": map[string]interface{}{
			"uid": b.parseUID(uid),
		},
	})
}

// Len returns the number of queued actions.
func (b *BatchBuilder) Len() int {
	return len(b.actions)
}

// Build returns the actions as a slice ready for the batch-actions API.
func (b *BatchBuilder) Build() []map[string]interface{} {
	return b.actions
}

// Reset drops all queued actions. Tempids keep counting down so references
// handed out earlier are never reused.
func (b *BatchBuilder) Reset() {
	b.actions = make([]map[string]interface{}, 0)
}

// parseUID converts a string UID to the appropriate type.
// Tempid strings like "-1" become integers, real UIDs stay as strings.
func (b *BatchBuilder) parseUID(uid string) interface{} {
	if n, err := strconv.Atoi(uid); err == nil && n < 0 {
		return n
	}
	return uid
}
