// Package bootstrap establishes or resets the administration/track/station
// hierarchy. It runs as a one-shot operational task: creation is strictly
// parent-before-child, the first failure aborts the run, and already
// committed entities are left in place (no compensating rollback).
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/oscehub/oscehub/internal/model"
	"github.com/oscehub/oscehub/internal/store"
)

// Runner executes bootstrap operations over an explicit collection set.
type Runner struct {
	cols *store.Collections
}

// NewRunner creates a Runner.
func NewRunner(cols *store.Collections) *Runner {
	return &Runner{cols: cols}
}

// Result counts the entities created by a bootstrap run. On failure it
// holds whatever was committed before the run aborted.
type Result struct {
	Administrations int
	Tracks          int
	Stations        int
}

// ResetResult counts what a reset or wipe removed.
type ResetResult struct {
	Stations        int64
	Tracks          int64
	Administrations int64
	Participants    int64
}

// ApplyTemplate creates the hierarchy described by tmpl.
//
// Administrations are created in input order. Tracks within one
// administration are created sequentially because the administration's
// track-reference update reads the accumulated ID list; stations within
// one track are independent and are created concurrently. After all
// tracks of an administration exist, its track-reference list is written
// once with the full ordered set of track IDs.
func (r *Runner) ApplyTemplate(ctx context.Context, tmpl *Template) (*Result, error) {
	res := &Result{}

	for i, adminTmpl := range tmpl.Administrations {
		admin := &model.Administration{
			Name:     fmt.Sprintf("Administration %d - %s", i+1, adminTmpl.AdminID),
			TrackIDs: []string{},
		}
		adminID, err := r.cols.Administrations.Insert(ctx, admin)
		if err != nil {
			return res, fmt.Errorf("bootstrap: create administration %q: %w", adminTmpl.AdminID, err)
		}
		res.Administrations++

		trackIDs := make([]string, 0, len(adminTmpl.Tracks))
		for j, trackTmpl := range adminTmpl.Tracks {
			name := fmt.Sprintf("Track %d - %s", j+1, trackTmpl.TrackID)
			stations := make([]string, len(trackTmpl.Stations))
			for k, stationID := range trackTmpl.Stations {
				stations[k] = fmt.Sprintf("Station %d - %s", k+1, stationID)
			}

			trackID, created, err := r.createTrack(ctx, name, adminID, stations)
			res.Stations += created
			if err != nil {
				return res, fmt.Errorf("bootstrap: create track %q: %w", trackTmpl.TrackID, err)
			}
			res.Tracks++
			trackIDs = append(trackIDs, trackID)
		}

		admin.TrackIDs = trackIDs
		if _, err := r.cols.Administrations.UpdateByID(ctx, adminID, admin); err != nil {
			return res, fmt.Errorf("bootstrap: update administration %q track refs: %w", adminTmpl.AdminID, err)
		}

		slog.Info("administration bootstrapped",
			"administration", admin.Name,
			"tracks", len(trackIDs),
		)
	}

	return res, nil
}

// FanOut creates exactly tracks×stations children under every existing
// administration, naming each deterministically from its position and its
// parent's name. Ordering and reference-update rules match ApplyTemplate.
func (r *Runner) FanOut(ctx context.Context, tracks, stations int) (*Result, error) {
	if tracks < 0 || stations < 0 {
		return nil, fmt.Errorf("bootstrap: fan-out counts must be non-negative (tracks=%d stations=%d)", tracks, stations)
	}

	admins, err := r.cols.Administrations.FindAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: list administrations: %w", err)
	}

	res := &Result{}
	for _, admin := range admins {
		trackIDs := make([]string, 0, tracks)
		for i := 1; i <= tracks; i++ {
			trackName := fmt.Sprintf("Track %d - %s", i, admin.Name)
			stationNames := make([]string, stations)
			for j := 1; j <= stations; j++ {
				stationNames[j-1] = fmt.Sprintf("Station %d - %s", j, trackName)
			}

			trackID, created, err := r.createTrack(ctx, trackName, admin.ID, stationNames)
			res.Stations += created
			if err != nil {
				return res, fmt.Errorf("bootstrap: create %q: %w", trackName, err)
			}
			res.Tracks++
			trackIDs = append(trackIDs, trackID)
		}

		admin.TrackIDs = append(admin.TrackIDs, trackIDs...)
		if _, err := r.cols.Administrations.UpdateByID(ctx, admin.ID, admin); err != nil {
			return res, fmt.Errorf("bootstrap: update administration %q track refs: %w", admin.Name, err)
		}

		slog.Info("administration fanned out",
			"administration", admin.Name,
			"tracks", tracks,
			"stations_per_track", stations,
		)
	}

	return res, nil
}

// createTrack inserts one track and its stations. The track must exist
// before any station references it; sibling stations share no state
// during creation, so they are inserted concurrently and awaited as one
// batch. Returns the track ID and the number of stations created.
func (r *Runner) createTrack(ctx context.Context, name, adminID string, stationNames []string) (string, int, error) {
	track := &model.Track{
		Name:             name,
		AdministrationID: adminID,
	}
	trackID, err := r.cols.Tracks.Insert(ctx, track)
	if err != nil {
		return "", 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, stationName := range stationNames {
		station := &model.Station{
			Name:    stationName,
			TrackID: trackID,
		}
		g.Go(func() error {
			_, err := r.cols.Stations.Insert(gctx, station)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		// Some sibling stations may have been committed already; they are
		// left in place per the no-rollback policy.
		return trackID, 0, err
	}
	return trackID, len(stationNames), nil
}

// Reset deletes all stations, then all tracks, then clears every
// administration's track-reference list. Administrations themselves are
// kept. Deletion runs children-first to avoid dangling references while
// the reset is in flight.
func (r *Runner) Reset(ctx context.Context) (*ResetResult, error) {
	res := &ResetResult{}

	n, err := r.cols.Stations.DeleteMany(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("bootstrap: delete stations: %w", err)
	}
	res.Stations = n

	n, err = r.cols.Tracks.DeleteMany(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("bootstrap: delete tracks: %w", err)
	}
	res.Tracks = n

	admins, err := r.cols.Administrations.FindAll(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("bootstrap: list administrations: %w", err)
	}
	for _, admin := range admins {
		admin.TrackIDs = []string{}
		if _, err := r.cols.Administrations.UpdateByID(ctx, admin.ID, admin); err != nil {
			return res, fmt.Errorf("bootstrap: clear track refs on %q: %w", admin.Name, err)
		}
	}

	slog.Info("hierarchy reset",
		"stations_deleted", res.Stations,
		"tracks_deleted", res.Tracks,
		"administrations_cleared", len(admins),
	)
	return res, nil
}

// Wipe is the full destructive variant: Reset plus deletion of all
// administrations and every participant kind.
func (r *Runner) Wipe(ctx context.Context) (*ResetResult, error) {
	res, err := r.Reset(ctx)
	if err != nil {
		return res, err
	}

	n, err := r.cols.Administrations.DeleteMany(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("bootstrap: delete administrations: %w", err)
	}
	res.Administrations = n

	for _, kind := range model.Kinds() {
		col, err := r.cols.Participants(kind)
		if err != nil {
			return res, err
		}
		n, err := col.DeleteMany(ctx, nil)
		if err != nil {
			return res, fmt.Errorf("bootstrap: delete %s records: %w", kind, err)
		}
		res.Participants += n
	}

	slog.Info("full wipe complete",
		"administrations_deleted", res.Administrations,
		"participants_deleted", res.Participants,
	)
	return res, nil
}
