// Package meta implements the per-document metadata store (`.meta`): the
// authoritative record of workflow state. Reads tolerate a missing file
// (pre-migration/absent); writes rewrite the whole file. The mutation
// functions here are pure — they take a Meta and return the next Meta —
// so the command layer can apply them without reaching into fields
// directly.
package meta

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/whharris917/qms-cli/pkg/logger"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

var log = logger.New("meta:store")

//go:embed schema/qms_meta.schema.json
var schemaFS embed.FS

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("schema/qms_meta.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("load .meta schema: %w", err)
			return
		}

		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			compileErr = fmt.Errorf("parse .meta schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		const url = "qms-meta.json"
		if err := compiler.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add .meta schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile(url)
		if err != nil {
			compileErr = fmt.Errorf("compile .meta schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compileErr
}

// dateLayout matches the plain YYYY-MM-DD dates stored in metadata
// (checked_out_date).
const dateLayout = "2006-01-02"

// Meta is the full on-disk shape of a document's metadata file. JSON
// tags match the wire format in the external-interfaces contract
// exactly; Extra preserves any unknown keys so round-tripping never
// silently drops data written by a newer version of this tool.
type Meta struct {
	DocID             string   `json:"doc_id"`
	DocType           string   `json:"doc_type"`
	Version           string   `json:"version"`
	Status            string   `json:"status"`
	Executable        bool     `json:"executable"`
	ExecutionPhase    string   `json:"execution_phase,omitempty"`
	ResponsibleUser   string   `json:"responsible_user,omitempty"`
	CheckedOut        bool     `json:"checked_out"`
	CheckedOutDate    string   `json:"checked_out_date,omitempty"`
	EffectiveVersion  string   `json:"effective_version,omitempty"`
	Supersedes        string   `json:"supersedes,omitempty"`
	PendingAssignees  []string `json:"pending_assignees"`
	Retiring          bool     `json:"retiring,omitempty"`
	LastReviewOutcome string   `json:"last_review_outcome,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Path is the conventional metadata file location.
func Path(root, docType, docID string) string {
	return filepath.Join(root, "QMS", ".meta", docType, docID+".json")
}

// Read loads a document's metadata. A missing file is not an error: it
// returns (nil, nil), matching the "treated as pre-migration/absent"
// read-tolerance rule in the store's responsibility.
func Read(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "read metadata %s", path)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "parse metadata %s", path)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "parse metadata %s", path)
	}
	schema, err := getSchema()
	if err != nil {
		return nil, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "load metadata schema")
	}
	if err := schema.Validate(doc); err != nil {
		return nil, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "%s fails schema validation", path)
	}

	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "parse metadata %s", path)
	}

	known := knownKeys()
	m.Extra = make(map[string]json.RawMessage)
	for k, v := range raw {
		if !known[k] {
			m.Extra[k] = v
		}
	}
	return &m, nil
}

// Write persists metadata, creating parent directories as needed. It
// round-trips unknown keys collected by Read by merging them back into
// the output object.
func Write(path string, m *Meta) error {
	log.Printf("writing metadata %s status=%s version=%s", path, m.Status, m.Version)

	known, err := json.Marshal(m)
	if err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "marshal metadata")
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "remarshal metadata")
	}
	for k, v := range m.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "marshal metadata")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "create metadata directory")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "write metadata")
	}
	return os.Rename(tmp, path)
}

func knownKeys() map[string]bool {
	return map[string]bool{
		"doc_id": true, "doc_type": true, "version": true, "status": true,
		"executable": true, "execution_phase": true, "responsible_user": true,
		"checked_out": true, "checked_out_date": true, "effective_version": true,
		"supersedes": true, "pending_assignees": true, "retiring": true,
		"last_review_outcome": true,
	}
}

// CreateInitial builds the metadata for a freshly created document:
// version 0.1, status DRAFT, owned and checked out by the creator.
func CreateInitial(docID, docType string, executable bool, creator string, today time.Time) *Meta {
	m := &Meta{
		DocID:            docID,
		DocType:          docType,
		Version:          "0.1",
		Status:           "DRAFT",
		Executable:       executable,
		ResponsibleUser:  creator,
		CheckedOut:       true,
		CheckedOutDate:   today.Format(dateLayout),
		PendingAssignees: []string{},
	}
	if executable {
		m.ExecutionPhase = "pre_release"
	}
	return m
}

// Checkout marks a document checked out to user, optionally bumping to
// newVersion (used when checking out a fresh draft from an effective
// document).
func Checkout(m *Meta, user string, newVersion string, today time.Time) *Meta {
	next := *m
	next.ResponsibleUser = user
	next.CheckedOut = true
	next.CheckedOutDate = today.Format(dateLayout)
	if newVersion != "" {
		next.Version = newVersion
	}
	return &next
}

// reviewStatuses are the statuses a checkin reverts to DRAFT, since a
// post-review edit invalidates the prior review cycle.
var reviewStatuses = map[string]bool{
	"REVIEWED": true, "PRE_REVIEWED": true, "POST_REVIEWED": true,
}

// Checkin clears the checked-out flags, preserving ownership and
// execution phase. If the document was in a completed-review status, it
// reverts to DRAFT and clears pending assignees — the edit invalidates
// whatever was just reviewed.
func Checkin(m *Meta) *Meta {
	next := *m
	next.CheckedOut = false
	next.CheckedOutDate = ""
	if reviewStatuses[next.Status] {
		next.Status = "DRAFT"
		next.PendingAssignees = []string{}
	}
	return &next
}

// Route sets the target status and the set of users now responsible for
// acting on it.
func Route(m *Meta, targetStatus string, assignees []string) *Meta {
	next := *m
	next.Status = targetStatus
	next.PendingAssignees = append([]string{}, assignees...)
	return &next
}

// ReviewComplete removes user from the pending set and, if nobody
// remains and newStatus is non-empty, transitions to it and records
// outcome as the latest completed review outcome — the value the
// approval gate checks before allowing a route-to-approval.
func ReviewComplete(m *Meta, user string, newStatus string, outcome string) *Meta {
	next := *m
	next.PendingAssignees = remove(m.PendingAssignees, user)
	if len(next.PendingAssignees) == 0 && newStatus != "" {
		next.Status = newStatus
		next.LastReviewOutcome = outcome
	}
	return &next
}

// Approval applies an approval transition: sets the new status and
// (optionally) version, clears pending assignees, and — when clearOwner
// is true, which happens on terminal approvals (EFFECTIVE/RETIRED)
// — clears ownership/checkout and records the new effective version.
func Approval(m *Meta, newStatus string, newVersion string, clearOwner bool) *Meta {
	next := *m
	next.Status = newStatus
	if newVersion != "" {
		next.Version = newVersion
	}
	next.PendingAssignees = []string{}
	if clearOwner {
		next.ResponsibleUser = ""
		next.CheckedOut = false
		next.CheckedOutDate = ""
		if newVersion != "" {
			next.EffectiveVersion = newVersion
		}
	}
	return &next
}

// Reject reverses to the given REVIEWED-equivalent status, preserving
// version, and clears pending assignees — the caller is responsible for
// also deleting any open approval tasks.
func Reject(m *Meta, toStatus string) *Meta {
	next := *m
	next.Status = toStatus
	next.PendingAssignees = []string{}
	return &next
}

// IsUserResponsible reports whether user currently owns the document.
func IsUserResponsible(m *Meta, user string) bool {
	return m.ResponsibleUser != "" && m.ResponsibleUser == user
}

// CanUserModify reports whether user may checkin/route/release/revert/
// close the document: they must be the owner, or ownership must be
// unset (e.g. a document that has never been claimed).
func CanUserModify(m *Meta, user string) bool {
	return m.ResponsibleUser == "" || m.ResponsibleUser == user
}

// GetPendingAssignees returns a copy of the pending-assignee list.
func GetPendingAssignees(m *Meta) []string {
	return append([]string{}, m.PendingAssignees...)
}

func remove(list []string, target string) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		if u != target {
			out = append(out, u)
		}
	}
	return out
}
