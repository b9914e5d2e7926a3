package testcase

import (
	"context"
	"strings"
)

// Search runs the cursored query engine: filters combine with AND, rows
// follow the total (created_at, id) order and pages are carved out with a
// keyset predicate so concurrent inserts never repeat or skip rows whose
// sort keys lie outside the remaining range.
func (s *MySQLStore) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	if params.Sort != "" && params.Sort != "created_at" {
		return nil, NewValidationError("unsupported sort field: %q", params.Sort)
	}

	order := params.Order
	switch order {
	case "":
		order = SortDesc
	case SortAsc, SortDesc:
	default:
		return nil, NewValidationError("unsupported sort order: %q", order)
	}

	q := s.db.WithContext(ctx).Model(&TestCase{}).
		Where("test_cases.is_deleted = ?", params.IncludeDeleted)

	if term := strings.TrimSpace(params.Query); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(test_cases.name) LIKE ? OR LOWER(test_cases.description) LIKE ?", pattern, pattern)
	}

	if len(params.Tags) > 0 {
		// Tag names are an exact dictionary; unlike q and suite_name the
		// filter does not fold case.
		names := make([]string, 0, len(params.Tags))
		for _, name := range params.Tags {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			q = q.Where(
				"test_cases.id IN (SELECT test_case_tags.test_case_id FROM test_case_tags JOIN tags ON tags.id = test_case_tags.tag_id WHERE tags.name IN ?)",
				names,
			)
		}
	}

	if len(params.SuiteIDs) > 0 {
		q = q.Where(
			"test_cases.id IN (SELECT test_case_suites.test_case_id FROM test_case_suites WHERE test_case_suites.suite_id IN ?)",
			params.SuiteIDs,
		)
	}

	if name := strings.TrimSpace(params.SuiteName); name != "" {
		pattern := "%" + strings.ToLower(name) + "%"
		q = q.Where(
			"test_cases.id IN (SELECT test_case_suites.test_case_id FROM test_case_suites JOIN test_suites ON test_suites.id = test_case_suites.suite_id WHERE LOWER(test_suites.name) LIKE ?)",
			pattern,
		)
	}

	if params.Cursor != "" {
		cursor, err := DecodeCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		if order == SortAsc {
			q = q.Where(
				"test_cases.created_at > ? OR (test_cases.created_at = ? AND test_cases.id > ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		} else {
			q = q.Where(
				"test_cases.created_at < ? OR (test_cases.created_at = ? AND test_cases.id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
	}

	if order == SortAsc {
		q = q.Order("test_cases.created_at ASC, test_cases.id ASC")
	} else {
		q = q.Order("test_cases.created_at DESC, test_cases.id DESC")
	}

	// One extra row decides whether a next page exists without a count.
	var rows []*TestCase
	if err := q.Limit(limit + 1).Find(&rows).Error; err != nil {
		s.logger.Error(ctx, "failed to search test cases", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	result := &SearchResult{Items: []*TestCase{}}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	result.Items = rows
	if result.Items == nil {
		result.Items = []*TestCase{}
	}

	if err := s.hydrate(ctx, s.db.WithContext(ctx), result.Items); err != nil {
		return nil, err
	}

	if hasMore {
		last := result.Items[len(result.Items)-1]
		result.NextCursor = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return result, nil
}
