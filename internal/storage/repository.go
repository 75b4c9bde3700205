package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"billminder/internal/core"

	_ "modernc.org/sqlite"
)

const (
	syncPending = "pending"
	syncDone    = "synced"
	syncError   = "error"
)

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepository implements Repository on a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies the embedded migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"reminders", "payment_history", "bills"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
		return fmt.Errorf("reset sequences: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// Bills

const billColumns = "id, name, amount_cents, due_date, category, is_paid, recurrence, version, created_at, updated_at"

func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	ts := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (name, amount_cents, due_date, category, is_paid, recurrence, version, sync_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		b.Name, b.Amount.Cents, b.DueDate.String(), string(b.Category), b.Paid, string(b.Recurrence), syncPending, ts, ts,
	)
	if err != nil {
		return core.Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill id: %w", err)
	}
	return r.GetBill(ctx, id)
}

func (r *SQLiteRepository) UpdateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET name = ?, amount_cents = ?, due_date = ?, category = ?, is_paid = ?, recurrence = ?,
		 version = version + 1, sync_status = ?, updated_at = ? WHERE id = ?`,
		b.Name, b.Amount.Cents, b.DueDate.String(), string(b.Category), b.Paid, string(b.Recurrence),
		syncPending, r.timestamp(), b.ID,
	)
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill %d: %w", b.ID, err)
	}
	if err := expectRow(res); err != nil {
		return core.Bill{}, fmt.Errorf("update bill %d: %w", b.ID, err)
	}
	return r.GetBill(ctx, b.ID)
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id int64) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("bill %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %d: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context, includePaid bool) ([]core.Bill, error) {
	query := "SELECT " + billColumns + " FROM bills"
	if !includePaid {
		query += " WHERE is_paid = 0"
	}
	query += " ORDER BY due_date, id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkBillPaid(ctx context.Context, id int64) (core.Bill, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bills SET is_paid = 1, version = version + 1, sync_status = ?, updated_at = ? WHERE id = ?",
		syncPending, r.timestamp(), id,
	)
	if err != nil {
		return core.Bill{}, fmt.Errorf("mark bill %d paid: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return core.Bill{}, fmt.Errorf("mark bill %d paid: %w", id, err)
	}
	return r.GetBill(ctx, id)
}

// Payments

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	ts := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_history (bill_id, payment_date, amount_cents, payment_method, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.BillID, p.Date.String(), p.Amount.Cents, string(p.Method), p.Notes, ts,
	)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment id: %w", err)
	}
	p.ID = id
	p.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	return p, nil
}

const paymentQuery = `SELECT p.id, p.bill_id, COALESCE(b.name, ''), p.payment_date, p.amount_cents, p.payment_method, p.notes, p.created_at
	FROM payment_history p LEFT JOIN bills b ON b.id = p.bill_id`

func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	return r.queryPayments(ctx, paymentQuery+" ORDER BY p.payment_date DESC, p.id DESC")
}

func (r *SQLiteRepository) ListPaymentsByBill(ctx context.Context, billID int64) ([]core.Payment, error) {
	return r.queryPayments(ctx, paymentQuery+" WHERE p.bill_id = ? ORDER BY p.payment_date DESC, p.id DESC", billID)
}

func (r *SQLiteRepository) queryPayments(ctx context.Context, query string, args ...any) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		var (
			p                core.Payment
			date, method, ts string
		)
		if err := rows.Scan(&p.ID, &p.BillID, &p.BillName, &date, &p.Amount.Cents, &method, &p.Notes, &ts); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("payment %d date %q: %w", p.ID, date, err)
		}
		p.Method = core.PaymentMethod(method)
		p.CreatedAt, _ = time.Parse(time.RFC3339, ts)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

func (r *SQLiteRepository) TotalPaid(ctx context.Context, billID int64) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM payment_history WHERE bill_id = ?", billID,
	).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("total paid for bill %d: %w", billID, err)
	}
	return core.Money{Cents: total}, nil
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM payment_history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	return nil
}

// Reminders

func (r *SQLiteRepository) SaveReminder(ctx context.Context, rec core.ReminderRecord) (core.ReminderRecord, bool, error) {
	ts := r.timestamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (bill_id, reminder_type, reminder_date, is_sent, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(bill_id, reminder_type, reminder_date) DO NOTHING`,
		rec.BillID, string(rec.Kind), rec.Date.String(), rec.Sent, ts,
	)
	if err != nil {
		return core.ReminderRecord{}, false, fmt.Errorf("insert reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.ReminderRecord{}, false, fmt.Errorf("insert reminder: %w", err)
	}
	if n == 0 {
		return core.ReminderRecord{}, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ReminderRecord{}, false, fmt.Errorf("reminder id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	return rec, true, nil
}

func (r *SQLiteRepository) HasReminder(ctx context.Context, billID int64, kind core.ReminderKind, date core.Date) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reminders WHERE bill_id = ? AND reminder_type = ? AND reminder_date = ?",
		billID, string(kind), date.String(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup reminder: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, unsentOnly bool) ([]core.ReminderRecord, error) {
	query := "SELECT id, bill_id, reminder_type, reminder_date, is_sent, created_at FROM reminders"
	if unsentOnly {
		query += " WHERE is_sent = 0"
	}
	query += " ORDER BY reminder_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []core.ReminderRecord
	for rows.Next() {
		var (
			rec            core.ReminderRecord
			kind, date, ts string
		)
		if err := rows.Scan(&rec.ID, &rec.BillID, &kind, &date, &rec.Sent, &ts); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		rec.Kind = core.ReminderKind(kind)
		if rec.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("reminder %d date %q: %w", rec.ID, date, err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, ts)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkReminderSent(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE reminders SET is_sent = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark reminder %d sent: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return fmt.Errorf("mark reminder %d sent: %w", id, err)
	}
	return nil
}

// Sync tracking

func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, version FROM bills WHERE sync_status != ? ORDER BY updated_at, id LIMIT ?",
		syncDone, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE bills SET sync_status = ? WHERE id = ? AND version = ?",
		syncDone, id, version,
	)
	if err != nil {
		return fmt.Errorf("mark bill %d synced: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE bills SET sync_status = ? WHERE id = ?", syncError, id)
	if err != nil {
		return fmt.Errorf("mark bill %d sync error: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(s rowScanner) (core.Bill, error) {
	var (
		b                    core.Bill
		due, category, recur string
		createdAt, updatedAt string
	)
	if err := s.Scan(&b.ID, &b.Name, &b.Amount.Cents, &due, &category, &b.Paid, &recur, &b.Version, &createdAt, &updatedAt); err != nil {
		return core.Bill{}, err
	}
	d, err := core.ParseDate(due)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %d due date %q: %w", b.ID, due, err)
	}
	b.DueDate = d
	b.Category = core.Category(category)
	b.Recurrence = core.Recurrence(recur)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return b, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
