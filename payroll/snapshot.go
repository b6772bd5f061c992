package payroll

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// SNAPSHOT HASHER
// =============================================================================

// SnapshotResult fingerprints a draft set.
type SnapshotResult struct {
	Hash  string
	Count int
}

type snapshotLine struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	Hours       string `json:"hours"`
	Pay         string `json:"pay"`
	IsCustom    bool   `json:"is_custom"`
	Account     string `json:"account"`
	Description string `json:"description"`
	Class       string `json:"class"`
}

type snapshotDraft struct {
	EmployeeID  string         `json:"employee_id"`
	DisplayName string         `json:"display_name"`
	Payee       string         `json:"payee"`
	TotalHours  string         `json:"total_hours"`
	TotalPay    string         `json:"total_pay"`
	Lines       []snapshotLine `json:"lines"`
}

// Snapshot returns a SHA-256 hex digest of the drafts, optionally limited to
// onlyEmployeeIDs. Numbers are rendered with four decimals and drafts and
// lines are sorted, so the hash does not depend on input order.
func Snapshot(drafts []CheckDraft, onlyEmployeeIDs []generic.EmployeeID) SnapshotResult {
	filtered := FilterDrafts(drafts, onlyEmployeeIDs)

	docs := make([]snapshotDraft, 0, len(filtered))
	for _, d := range filtered {
		doc := snapshotDraft{
			EmployeeID:  string(d.EmployeeID),
			DisplayName: d.DisplayName,
			Payee:       d.Payee.String(),
			TotalHours:  generic.FixedString(d.TotalHours, generic.HashPlaces),
			TotalPay:    generic.FixedString(d.TotalPay, generic.HashPlaces),
			Lines:       make([]snapshotLine, 0, len(d.Lines)),
		}
		for _, l := range d.Lines {
			doc.Lines = append(doc.Lines, snapshotLine{
				ProjectID:   string(l.ProjectID),
				ProjectName: l.ProjectName,
				Hours:       generic.FixedString(l.ProjectHours, generic.HashPlaces),
				Pay:         generic.FixedString(l.ProjectPay, generic.HashPlaces),
				IsCustom:    l.IsCustom,
				Account:     l.ExpenseAccountName,
				Description: l.Description,
				Class:       l.ClassName,
			})
		}
		sort.SliceStable(doc.Lines, func(i, j int) bool {
			return lineLess(doc.Lines[i], doc.Lines[j])
		})
		docs = append(docs, doc)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].EmployeeID < docs[j].EmployeeID })

	// Marshalling plain structs of strings and bools cannot fail.
	payload, _ := json.Marshal(docs)
	sum := sha256.Sum256(payload)
	return SnapshotResult{Hash: hex.EncodeToString(sum[:]), Count: len(docs)}
}

// lineLess orders by project ID, then by the remaining fields so custom
// lines (which share the no-project ID) sort deterministically too.
func lineLess(a, b snapshotLine) bool {
	if a.ProjectID != b.ProjectID {
		return a.ProjectID < b.ProjectID
	}
	if a.IsCustom != b.IsCustom {
		return !a.IsCustom
	}
	if a.Description != b.Description {
		return a.Description < b.Description
	}
	if a.Pay != b.Pay {
		return a.Pay < b.Pay
	}
	if a.Hours != b.Hours {
		return a.Hours < b.Hours
	}
	if a.Account != b.Account {
		return a.Account < b.Account
	}
	if a.Class != b.Class {
		return a.Class < b.Class
	}
	return a.ProjectName < b.ProjectName
}

// =============================================================================
// BATCH KEYS
// =============================================================================

// BatchKey identifies what a draft set pays for: the period, every draft's
// source entries, and the snapshot hash. Two periods with identical hours
// get different keys because their entries differ.
func BatchKey(period generic.Period, drafts []CheckDraft) string {
	keys := make([]string, 0, len(drafts))
	for _, d := range drafts {
		keys = append(keys, EntryKey(period, d))
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(Snapshot(drafts, nil).Hash))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// EntryKey identifies one employee's check within a period by its sorted
// source entry IDs.
func EntryKey(period generic.Period, d CheckDraft) string {
	ids := append([]string(nil), d.EntryIDs...)
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(period.String()))
	h.Write([]byte{0})
	h.Write([]byte(d.EmployeeID))
	for _, id := range ids {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}
