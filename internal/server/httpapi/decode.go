package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/xeipuuv/gojsonschema"
)

const dateOnly = "2006-01-02"

// readValidated reads the request body, validates it against schema and
// decodes it into dst.
func readValidated(r *http.Request, schema *gojsonschema.Schema, dst any) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, common.NewValidationError("", "Request body too large or unreadable")
	}
	if err := validateBody(schema, body); err != nil {
		return nil, err
	}
	if dst != nil {
		if err := json.Unmarshal(body, dst); err != nil {
			return nil, common.NewValidationError("", "Invalid JSON body")
		}
	}
	return body, nil
}

// parseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, common.NewValidationError("dueDate", "Invalid date")
}

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`
}

func (req createTaskRequest) toModel() (*models.NewTask, error) {
	nt := &models.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		Status:      models.Status(req.Status),
		Tags:        req.Tags,
	}
	if req.DueDate != nil {
		d, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		nt.DueDate = &d
	}
	return nt, nil
}

// decodeTaskPatch turns an already validated body into a TaskPatch,
// keeping absent keys apart from explicit nulls.
func decodeTaskPatch(body []byte) (models.TaskPatch, error) {
	var patch models.TaskPatch

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return patch, common.NewValidationError("", "Invalid JSON body")
	}

	for key, value := range raw {
		isNull := string(value) == "null"

		var err error
		switch key {
		case "title":
			var s string
			err = json.Unmarshal(value, &s)
			patch.Title = &s
		case "priority":
			var s string
			err = json.Unmarshal(value, &s)
			p := models.Priority(s)
			patch.Priority = &p
		case "status":
			var s string
			err = json.Unmarshal(value, &s)
			st := models.Status(s)
			patch.Status = &st
		case "description":
			patch.Description, err = optionalString(value, isNull)
		case "aiSummary":
			patch.AISummary, err = optionalString(value, isNull)
		case "tags":
			if isNull {
				patch.Tags = models.Null[[]string]()
				continue
			}
			var tags []string
			err = json.Unmarshal(value, &tags)
			if tags == nil {
				tags = []string{}
			}
			patch.Tags = models.Some(tags)
		case "dueDate":
			if isNull {
				patch.DueDate = models.Null[time.Time]()
				continue
			}
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				var d time.Time
				if d, err = parseDueDate(s); err != nil {
					return patch, err
				}
				patch.DueDate = models.Some(d)
			}
		}
		if err != nil {
			return patch, common.NewValidationError(key, "Invalid value")
		}
	}

	return patch, nil
}

func optionalString(value json.RawMessage, isNull bool) (models.Optional[string], error) {
	if isNull {
		return models.Null[string](), nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return models.Optional[string]{}, err
	}
	return models.Some(s), nil
}
