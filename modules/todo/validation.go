package todo

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

// Validation messages returned to clients.
const (
	msgTitleRequired     = "Title is required"
	msgTitleTooLong      = "Title cannot be longer than 255 characters"
	msgDescriptionType   = "Description must be a string"
	msgDescriptionLong   = "Description cannot be longer than 4000 characters"
	msgDeadlineInvalid   = "Deadline must be a valid date"
	msgPriorityInvalid   = "Priority must be one of: low, medium, high, urgent"
	msgEstimateWhole     = "Time estimate must be a whole number"
	msgEstimateMin       = "Time estimate must be at least 1 minute"
	msgEstimateMax       = "Time estimate cannot exceed 7 days (10080 minutes)"
	msgCompletedRequired = "Completed must be a boolean"
)

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?(Z|[+-]\d{2}:\d{2})?$`)
)

// issues collects at most one message per field.
type issues struct {
	list []domain.Issue
	seen map[string]bool
}

func (is *issues) add(field, message string) {
	if is.seen == nil {
		is.seen = make(map[string]bool)
	}
	if is.seen[field] {
		return
	}
	is.seen[field] = true
	is.list = append(is.list, domain.Issue{Field: field, Message: message})
}

func (is *issues) has(field string) bool {
	return is.seen[field]
}

func (is *issues) empty() bool {
	return len(is.list) == 0
}

// ParseDeadline reports whether s is a date or ISO-8601 date-time that names a real instant.
func ParseDeadline(s string) (time.Time, bool) {
	switch {
	case datePattern.MatchString(s):
		t, err := time.Parse(time.DateOnly, s)
		return t, err == nil
	case dateTimePattern.MatchString(s):
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func checkTitle(is *issues, title string) {
	switch {
	case strings.TrimSpace(title) == "":
		is.add("title", msgTitleRequired)
	case utf8.RuneCountInString(title) > domain.MaxTitleLength:
		is.add("title", msgTitleTooLong)
	}
}

func checkDescription(is *issues, description *string) {
	if description != nil && utf8.RuneCountInString(*description) > domain.MaxDescriptionLength {
		is.add("description", msgDescriptionLong)
	}
}

func checkDeadline(is *issues, deadline *string) {
	if deadline == nil || *deadline == "" {
		return
	}
	if _, ok := ParseDeadline(*deadline); !ok {
		is.add("deadline", msgDeadlineInvalid)
	}
}

func checkPriority(is *issues, p *domain.Priority) {
	if p != nil && !p.Valid() {
		is.add("priority", msgPriorityInvalid)
	}
}

func checkEstimate(is *issues, minutes *int) {
	switch {
	case minutes == nil:
	case *minutes < domain.MinTimeEstimate:
		is.add("time_estimate", msgEstimateMin)
	case *minutes > domain.MaxTimeEstimate:
		is.add("time_estimate", msgEstimateMax)
	}
}

// ValidateCreate checks a typed create payload.
func ValidateCreate(p domain.CreatePayload) error {
	var is issues
	validateCreate(&is, p)
	if is.empty() {
		return nil
	}
	return domain.Validation(is.list)
}

func validateCreate(is *issues, p domain.CreatePayload) {
	if !is.has("title") {
		checkTitle(is, p.Title)
	}
	checkDescription(is, p.Description)
	checkDeadline(is, p.Deadline)
	checkPriority(is, p.Priority)
	checkEstimate(is, p.TimeEstimate)
}

// ValidateUpdate checks a typed partial update. Only set fields are checked.
func ValidateUpdate(p domain.UpdatePayload) error {
	var is issues
	validateUpdate(&is, p)
	if is.empty() {
		return nil
	}
	return domain.Validation(is.list)
}

func validateUpdate(is *issues, p domain.UpdatePayload) {
	if p.Title.Set {
		if p.Title.Null {
			is.add("title", msgTitleRequired)
		} else {
			checkTitle(is, p.Title.Value)
		}
	}
	if p.Description.Set {
		checkDescription(is, p.Description.Ptr())
	}
	if p.Deadline.Set {
		checkDeadline(is, p.Deadline.Ptr())
	}
	if p.Priority.Set {
		if p.Priority.Null {
			is.add("priority", msgPriorityInvalid)
		} else {
			checkPriority(is, &p.Priority.Value)
		}
	}
	if p.TimeEstimate.Set {
		checkEstimate(is, p.TimeEstimate.Ptr())
	}
}

// ParseCreate validates a decoded JSON object into a create payload.
func ParseCreate(raw map[string]any) (domain.CreatePayload, error) {
	var is issues
	var p domain.CreatePayload

	if title, ok := raw["title"].(string); ok {
		p.Title = strings.TrimSpace(title)
	} else {
		is.add("title", msgTitleRequired)
	}
	if v, ok := raw["description"]; ok {
		p.Description = rawString(&is, "description", v, msgDescriptionType)
	}
	if v, ok := raw["deadline"]; ok {
		p.Deadline = rawString(&is, "deadline", v, msgDeadlineInvalid)
		if p.Deadline != nil && *p.Deadline == "" {
			p.Deadline = nil
		}
	}
	if v, ok := raw["priority"]; ok {
		if s, ok := v.(string); ok {
			pr := domain.Priority(s)
			p.Priority = &pr
		} else {
			is.add("priority", msgPriorityInvalid)
		}
	}
	if v, ok := raw["time_estimate"]; ok {
		p.TimeEstimate = rawMinutes(&is, v)
	}

	validateCreate(&is, p)
	if !is.empty() {
		return domain.CreatePayload{}, domain.Validation(is.list)
	}
	return p, nil
}

// ParseUpdate validates a decoded JSON object into a partial update.
func ParseUpdate(raw map[string]any) (domain.UpdatePayload, error) {
	var is issues
	var p domain.UpdatePayload

	if v, ok := raw["title"]; ok {
		if s, ok := v.(string); ok {
			p.Title = domain.Value(strings.TrimSpace(s))
		} else {
			is.add("title", msgTitleRequired)
		}
	}
	if v, ok := raw["description"]; ok {
		p.Description = toField(rawString(&is, "description", v, msgDescriptionType))
	}
	if v, ok := raw["deadline"]; ok {
		p.Deadline = toField(rawString(&is, "deadline", v, msgDeadlineInvalid))
		if p.Deadline.Set && !p.Deadline.Null && p.Deadline.Value == "" {
			p.Deadline = domain.Null[string]()
		}
	}
	if v, ok := raw["priority"]; ok {
		if s, ok := v.(string); ok {
			p.Priority = domain.Value(domain.Priority(s))
		} else {
			is.add("priority", msgPriorityInvalid)
		}
	}
	if v, ok := raw["time_estimate"]; ok {
		p.TimeEstimate = toField(rawMinutes(&is, v))
	}

	if !is.empty() {
		validateUpdate(&is, p)
		return domain.UpdatePayload{}, domain.Validation(is.list)
	}
	if err := ValidateUpdate(p); err != nil {
		return domain.UpdatePayload{}, err
	}
	return p, nil
}

// ParseToggle validates a status-change body.
func ParseToggle(raw map[string]any) (bool, error) {
	completed, ok := raw["completed"].(bool)
	if !ok {
		return false, domain.Validation([]domain.Issue{{Field: "completed", Message: msgCompletedRequired}})
	}
	return completed, nil
}

// ParseListQuery reads list parameters through get, applying defaults to blank values.
func ParseListQuery(get func(key string) string) (domain.ListQuery, error) {
	var is issues
	q := domain.DefaultListQuery()

	if s := get("status"); s != "" {
		q.Status = domain.StatusFilter(s)
	}
	if s := get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			is.add("page", "Page must be a positive integer")
		}
		q.Page = n
	}
	if s := get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			is.add("limit", "Limit must be a positive integer")
		}
		q.Limit = n
	}
	if s := get("sort"); s != "" {
		q.Sort = domain.SortField(s)
	}
	if s := get("order"); s != "" {
		q.Order = domain.SortOrder(s)
	}

	checkListQuery(&is, q)
	if !is.empty() {
		return domain.ListQuery{}, domain.InvalidParameters(is.list)
	}
	return q, nil
}

// NormalizeListQuery fills zero values with defaults and validates the rest.
func NormalizeListQuery(q domain.ListQuery) (domain.ListQuery, error) {
	def := domain.DefaultListQuery()
	if q.Status == "" {
		q.Status = def.Status
	}
	if q.Page == 0 {
		q.Page = def.Page
	}
	if q.Limit == 0 {
		q.Limit = def.Limit
	}
	if q.Sort == "" {
		q.Sort = def.Sort
	}
	if q.Order == "" {
		q.Order = def.Order
	}

	var is issues
	checkListQuery(&is, q)
	if !is.empty() {
		return domain.ListQuery{}, domain.InvalidParameters(is.list)
	}
	return q, nil
}

func checkListQuery(is *issues, q domain.ListQuery) {
	switch q.Status {
	case domain.StatusAll, domain.StatusCompleted, domain.StatusIncomplete:
	default:
		is.add("status", "Status must be one of: all, completed, incomplete")
	}
	if q.Page < 1 {
		is.add("page", "Page must be a positive integer")
	}
	switch {
	case q.Limit < 1:
		is.add("limit", "Limit must be a positive integer")
	case q.Limit > domain.MaxLimit:
		is.add("limit", "Limit cannot exceed 100")
	}
	switch q.Sort {
	case domain.SortCreatedAt, domain.SortUpdatedAt, domain.SortDeadline:
	default:
		is.add("sort", "Sort must be one of: created_at, updated_at, deadline")
	}
	switch q.Order {
	case domain.OrderAsc, domain.OrderDesc:
	default:
		is.add("order", "Order must be one of: asc, desc")
	}
}

// rawString accepts a string or null. Null yields nil with no issue.
func rawString(is *issues, field string, v any, message string) *string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return &s
	default:
		is.add(field, message)
		return nil
	}
}

// rawMinutes accepts an integral JSON number or null.
func rawMinutes(is *issues, v any) *int {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			f = float64(i)
		} else if parsed, err := n.Float64(); err == nil {
			f = parsed
		} else {
			is.add("time_estimate", msgEstimateWhole)
			return nil
		}
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		is.add("time_estimate", msgEstimateWhole)
		return nil
	}
	if f != math.Trunc(f) {
		is.add("time_estimate", msgEstimateWhole)
		return nil
	}
	// Clamp before converting so huge values report the range issue instead of overflowing.
	f = math.Max(math.Min(f, domain.MaxTimeEstimate+1), domain.MinTimeEstimate-1)
	m := int(f)
	return &m
}

// toField maps a parsed nullable value onto a set update field.
func toField[T any](v *T) domain.Field[T] {
	if v == nil {
		return domain.Null[T]()
	}
	return domain.Value(*v)
}
