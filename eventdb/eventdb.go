// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb keeps ledger events in sqlite for filtering and streaming.
package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"strings"

	"github.com/holiman/uint256"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "eventdb")

type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("event db opened", "path", path, "sqlite", driverVer)
	return &EventDB{path, db, driverVer}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Insert stores the events of one operation.
func (db *EventDB) Insert(seq uint64, events []*xenv.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO event(seq, eventIndex, name, address, subject, amount, time, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, ev := range events {
		amount, err := encodeAmount(ev)
		if err != nil {
			tx.Rollback()
			return err
		}
		var data []byte
		if len(ev.Data) > 0 {
			if data, err = json.Marshal(ev.Data); err != nil {
				tx.Rollback()
				return err
			}
		}
		if _, err := stmt.Exec(seq, i, ev.Name, ev.Address.Bytes(), ev.Subject.Bytes(), amount, ev.Time, data); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func encodeAmount(ev *xenv.Event) ([]byte, error) {
	if ev.Amount == nil {
		return nil, nil
	}
	v, overflow := uint256.FromBig(ev.Amount)
	if overflow || ev.Amount.Sign() < 0 {
		return nil, errors.Errorf("event %s amount %v out of range", ev.Name, ev.Amount)
	}
	b := v.Bytes32()
	return b[:], nil
}

// Filter returns the events matching filter.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query(ctx, "SELECT seq, eventIndex, name, address, subject, amount, time, data FROM event ORDER BY seq ASC, eventIndex ASC")
	}
	var args []any
	stmt := "SELECT seq, eventIndex, name, address, subject, amount, time, data FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ?"
		if filter.Range.To >= filter.Range.From && filter.Range.To <= math.MaxInt64 {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ?"
		}
	}
	if filter.AfterSeq > 0 {
		args = append(args, filter.AfterSeq)
		stmt += " AND seq > ?"
	}
	if filter.UntilSeq > 0 {
		args = append(args, filter.UntilSeq)
		stmt += " AND seq <= ?"
	}
	if filter.Address != nil {
		args = append(args, filter.Address.Bytes())
		stmt += " AND address = ?"
	}
	if filter.Subject != nil {
		args = append(args, filter.Subject.Bytes())
		stmt += " AND subject = ?"
	}
	if len(filter.Names) > 0 {
		stmt += " AND name IN (?" + strings.Repeat(", ?", len(filter.Names)-1) + ")"
		for _, name := range filter.Names {
			args = append(args, name)
		}
	}
	if filter.MinAmount != nil {
		min, overflow := uint256.FromBig(filter.MinAmount)
		if overflow || filter.MinAmount.Sign() < 0 {
			return nil, errors.New("min amount out of range")
		}
		b := min.Bytes32()
		args = append(args, b[:])
		stmt += " AND amount >= ?"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC, eventIndex DESC"
	} else {
		stmt += " ORDER BY seq ASC, eventIndex ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			ev      Event
			address []byte
			subject []byte
			amount  []byte
			data    []byte
		)
		if err := rows.Scan(&ev.Seq, &ev.Index, &ev.Name, &address, &subject, &amount, &ev.Time, &data); err != nil {
			return nil, err
		}
		ev.Address = thor.BytesToAddress(address)
		ev.Subject = thor.BytesToAddress(subject)
		if amount != nil {
			ev.Amount = new(uint256.Int).SetBytes(amount).ToBig()
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &ev.Data); err != nil {
				return nil, errors.Wrap(err, "decode event data")
			}
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
