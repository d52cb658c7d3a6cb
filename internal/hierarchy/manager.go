package hierarchy

import (
	"context"

	"atrium/internal/fault"
	"atrium/internal/repo"
)

// Manager проверяет и обходит дерево организаций.
// Глубина не денормализована — всегда считается обходом предков.
type Manager struct {
	orgs     *repo.OrgStore
	maxDepth int
}

func New(orgs *repo.OrgStore, maxDepth int) *Manager {
	return &Manager{orgs: orgs, maxDepth: maxDepth}
}

// ValidateParentAssignment проверяет назначение родителя:
// CycleDetected — org встречается в цепочке предков кандидата
// (в том числе org == кандидат), DepthExceeded — итоговая глубина
// больше настроенного максимума.
func (m *Manager) ValidateParentAssignment(ctx context.Context, orgID, candidateParentID uint) error {
	if orgID == candidateParentID {
		return fault.New(fault.CycleDetected, "organization %d cannot be its own parent", orgID)
	}

	// Идём от кандидата вверх; visited — защита от уже испорченного графа.
	visited := map[uint]bool{}
	depth := 1 // сам org после переноса
	cur := candidateParentID
	for {
		if visited[cur] {
			return fault.New(fault.CycleDetected, "ancestor chain of %d contains a cycle", candidateParentID)
		}
		visited[cur] = true

		if cur == orgID {
			return fault.New(fault.CycleDetected, "organization %d is a descendant of %d", candidateParentID, orgID)
		}

		node, err := m.orgs.GetByID(ctx, cur)
		if err != nil {
			return err
		}
		depth++
		if depth > m.maxDepth {
			return fault.New(fault.DepthExceeded, "hierarchy depth %d exceeds maximum %d", depth, m.maxDepth)
		}
		if node.ParentOrganizationID == nil {
			return nil
		}
		cur = *node.ParentOrganizationID
	}
}

// ListDescendants — BFS по смежности parent→children; org в результат
// не входит. Переживает испорченный циклический граф: visited
// останавливает повторный заход.
func (m *Manager) ListDescendants(ctx context.Context, orgID uint) ([]uint, error) {
	visited := map[uint]bool{orgID: true}
	var out []uint
	queue := []uint{orgID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		children, err := m.orgs.ListChildren(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			out = append(out, c.ID)
			queue = append(queue, c.ID)
		}
	}
	return out, nil
}
