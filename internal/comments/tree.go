package comments

import "github.com/campuslink/campuslink/internal/models"

// BuildTree reconstructs the reply forest from a flat comment list.
//
// The input is expected pre-sorted by createdAt ascending; the builder
// only groups, it never re-sorts, so each reply list keeps that order.
// A comment whose parent id is not present in the input (the parent was
// hard-deleted) falls back to being a root rather than being dropped.
// Every input comment appears in the output exactly once.
func BuildTree(flat []models.Comment) []*models.CommentNode {
	nodes := make([]models.CommentNode, len(flat))
	index := make(map[string]int, len(flat))
	for i, c := range flat {
		nodes[i] = models.CommentNode{Comment: c, Replies: []*models.CommentNode{}}
		index[c.ID] = i
	}

	roots := make([]*models.CommentNode, 0, len(flat))
	for i := range nodes {
		parentID := nodes[i].ParentCommentID
		if parentID == nil {
			roots = append(roots, &nodes[i])
			continue
		}
		if pi, ok := index[*parentID]; ok && pi != i {
			nodes[pi].Replies = append(nodes[pi].Replies, &nodes[i])
			continue
		}
		// Orphaned reply: parent no longer exists
		roots = append(roots, &nodes[i])
	}

	return roots
}
