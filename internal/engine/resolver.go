package engine

import "github.com/stavren/modelsync/internal/domain"

// ButtonKind is the visual flavor of the per-item download control.
type ButtonKind int

const (
	ButtonPrimary ButtonKind = iota
	ButtonDanger
	ButtonWarning
	ButtonSuccess
)

// ButtonState is the single displayable state resolved for a catalog item.
type ButtonState struct {
	Label   string
	Enabled bool
	Kind    ButtonKind
	Detail  string
}

// BarColor is the color of the aggregate progress bar.
type BarColor int

const (
	BarBlue  BarColor = iota // work remains
	BarRed                   // head-of-queue item failed
	BarGreen                 // everything completed
	BarAmber                 // nothing queued, nothing completed
)

// ResolveButton maps an item's combined signals to one displayable state.
// versionID selects which version the control refers to; empty means the
// model's first version. Precedence is fixed; the first rule that matches
// wins:
//
//  1. a projected error re-enables Download so the user can retry
//  2. early-access versions cannot be downloaded at all
//  3. already downloaded
//  4. already queued
//  5. plain Download
//
// Membership checks use the resolved version id: a record or entry counts
// only when it carries that exact id. Only when the item resolves to no
// version at all does the check fall back to the model id alone.
func ResolveButton(model domain.Model, versionID string, queue []domain.QueueEntry, downloaded []domain.DownloadedRecord, status domain.RuntimeStatus) ButtonState {
	version := model.ResolveVersion(versionID)

	if status.Error != "" {
		return ButtonState{Label: "Download", Enabled: true, Kind: ButtonDanger, Detail: status.Error}
	}
	if version.Availability == domain.EarlyAccess {
		return ButtonState{Label: "Early Access", Kind: ButtonWarning}
	}
	for _, r := range downloaded {
		if r.Matches(model.ID, version.ID) {
			return ButtonState{Label: "Downloaded", Kind: ButtonSuccess}
		}
	}
	for _, e := range queue {
		if e.Matches(model.ID, version.ID) {
			return ButtonState{Label: "In queue", Kind: ButtonWarning}
		}
	}
	return ButtonState{Label: "Download", Enabled: true, Kind: ButtonPrimary}
}

// ResolveButtonFor resolves the button state for a model's first version
// using the service's current mirrors and projection.
func (s *Service) ResolveButtonFor(model domain.Model) ButtonState {
	return s.ResolveButtonForVersion(model, "")
}

// ResolveButtonForVersion resolves the button state for one specific
// version of a model.
func (s *Service) ResolveButtonForVersion(model domain.Model, versionID string) ButtonState {
	return ResolveButton(model, versionID, s.store.Queue(), s.store.Downloaded(), s.proj.Status(model.ID))
}

// ProgressColor picks the aggregate bar color from the queue, the
// downloaded-set size and the head-of-queue status.
func ProgressColor(queue []domain.QueueEntry, downloadedCount int, head domain.RuntimeStatus) BarColor {
	if len(queue) > 0 {
		if head.Error != "" {
			return BarRed
		}
		return BarBlue
	}
	if downloadedCount > 0 {
		return BarGreen
	}
	return BarAmber
}

// ProgressColorNow derives the current bar color from the service's state.
func (s *Service) ProgressColorNow() BarColor {
	return ProgressColor(s.store.Queue(), len(s.store.Downloaded()), s.HeadStatus())
}
