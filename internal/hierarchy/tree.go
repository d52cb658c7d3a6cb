package hierarchy

import "atrium/internal/models"

// Node — узел леса организаций.
// IsOrphan — родитель заявлен, но в наборе отсутствует (например, удалён);
// такие узлы поднимаются в корни и обязаны оставаться видимыми.
type Node struct {
	models.Organization
	Children []*Node `json:"children"`
	IsOrphan bool    `json:"is_orphan,omitempty"`
}

// BuildTree — чистая сборка леса из плоского списка, без похода в стор.
// Arena-подход: плоская map по id, живых ссылок-циклов не возникает.
func BuildTree(flat []models.Organization) []*Node {
	arena := make(map[uint]*Node, len(flat))
	for i := range flat {
		arena[flat[i].ID] = &Node{Organization: flat[i], Children: []*Node{}}
	}

	roots := make([]*Node, 0)
	for _, org := range flat {
		node := arena[org.ID]
		switch {
		case org.ParentOrganizationID == nil:
			roots = append(roots, node)
		default:
			parent, ok := arena[*org.ParentOrganizationID]
			if !ok {
				node.IsOrphan = true
				roots = append(roots, node)
				continue
			}
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}
