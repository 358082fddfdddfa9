package mailstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// defaultQueryLimit applies when QueryOptions.Limit is zero
const defaultQueryLimit = 20

// macAbsoluteEpochOffset converts Mac absolute time (seconds since
// 2001-01-01) to Unix seconds. Envelope Index builds differ in which
// convention they store.
const macAbsoluteEpochOffset = 978307200

// AppleMailSource reads Apple Mail's Envelope Index database. The
// connection is opened read-only; the schema is undocumented and
// varies between Mail.app versions, so tables and columns are probed
// before use.
type AppleMailSource struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger

	table       string
	columns     map[string]bool
	hasSubjects bool
	hasAddrs    bool
	hasBoxes    bool
}

// FindEnvelopeIndex locates the newest Envelope Index under the
// user's mail directory
func FindEnvelopeIndex() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	mailDir := filepath.Join(home, "Library", "Mail")
	matches, err := filepath.Glob(filepath.Join(mailDir, "V*"))
	if err != nil {
		return "", fmt.Errorf("failed to scan mail directory: %w", err)
	}

	// Newest data-format version first
	sort.Slice(matches, func(i, j int) bool {
		return envelopeVersion(matches[i]) > envelopeVersion(matches[j])
	})

	for _, dir := range matches {
		candidate := filepath.Join(dir, "MailData", "Envelope Index")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no Envelope Index found under %s", mailDir)
}

func envelopeVersion(dir string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(dir), "V"))
	if err != nil {
		return -1
	}
	return n
}

// NewAppleMailSource opens the Envelope Index at dbPath, or the
// auto-discovered one when dbPath is empty
func NewAppleMailSource(dbPath string, logger *zap.Logger) (*AppleMailSource, error) {
	if dbPath == "" {
		found, err := FindEnvelopeIndex()
		if err != nil {
			return nil, err
		}
		dbPath = found
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("envelope index not found at %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", readOnlyURI(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open envelope index: %w", err)
	}

	s := &AppleMailSource{
		db:     db,
		dbPath: dbPath,
		logger: logger,
	}

	if err := s.probeSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("Opened Apple Mail envelope index",
		zap.String("path", dbPath),
		zap.String("table", s.table),
		zap.Bool("joined_schema", s.hasSubjects))

	return s, nil
}

// readOnlyURI builds a mode=ro SQLite URI, escaping the path so names
// like "Envelope Index" survive URI parsing
func readOnlyURI(dbPath string) string {
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	u := url.URL{Scheme: "file", Path: dbPath, RawQuery: "mode=ro"}
	return u.String()
}

// probeSchema finds the messages table and records which optional
// tables and columns this database version carries
func (s *AppleMailSource) probeSchema() error {
	for _, candidate := range []string{"messages", "message", "mail"} {
		var one int
		err := s.db.QueryRow("SELECT 1 FROM " + candidate + " LIMIT 1").Scan(&one)
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			s.table = candidate
			break
		}
	}
	if s.table == "" {
		return fmt.Errorf("could not find messages table in envelope index at %s", s.dbPath)
	}

	cols, err := s.tableColumns(s.table)
	if err != nil {
		return err
	}
	s.columns = cols

	s.hasSubjects = s.tableExists("subjects")
	s.hasAddrs = s.tableExists("addresses")
	s.hasBoxes = s.tableExists("mailboxes")
	return nil
}

func (s *AppleMailSource) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return nil, fmt.Errorf("failed to probe columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func (s *AppleMailSource) tableExists(table string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM " + table + " LIMIT 1").Scan(&one)
	return err == nil || errors.Is(err, sql.ErrNoRows)
}

// QueryMessages returns records matching the options, newest first
func (s *AppleMailSource) QueryMessages(ctx context.Context, opts core.QueryOptions) ([]core.MessageRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	query, params, cutoff := s.buildQuery(opts, limit)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query envelope index: %w", err)
	}
	defer rows.Close()

	var records []core.MessageRecord
	for rows.Next() {
		var (
			id       int64
			subject  sql.NullString
			sender   sql.NullString
			name     sql.NullString
			received sql.NullFloat64
			mailbox  sql.NullString
			readFlag sql.NullInt64
		)
		if err := rows.Scan(&id, &subject, &sender, &name, &received, &mailbox, &readFlag); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}

		receivedAt := convertMailTimestamp(int64(received.Float64))
		if !cutoff.IsZero() && receivedAt.Before(cutoff) {
			continue
		}

		records = append(records, core.MessageRecord{
			ID:            strconv.FormatInt(id, 10),
			SenderAddress: senderDisplay(name.String, sender.String),
			Subject:       subject.String,
			IsUnread:      readFlag.Valid && readFlag.Int64 == 0,
			ReceivedAt:    receivedAt,
			MailboxPath:   mailbox.String,
			Account:       accountFromMailboxURL(mailbox.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}

	return records, nil
}

// buildQuery assembles the SELECT for this database's schema. Joined
// form resolves subject, sender, and mailbox rowid references; flat
// form reads the columns directly, which older schemas carried.
func (s *AppleMailSource) buildQuery(opts core.QueryOptions, limit int) (string, []interface{}, time.Time) {
	var (
		b       strings.Builder
		where   []string
		params  []interface{}
		cutoff  time.Time
		mbField string
	)

	readExpr := "m.read"
	if !s.columns["read"] {
		readExpr = "NULL"
	}

	if s.hasSubjects && s.hasAddrs {
		b.WriteString("SELECT m.ROWID, COALESCE(s.subject, ''), COALESCE(a.address, ''), COALESCE(a.comment, ''), m.date_received, ")
		if s.hasBoxes {
			b.WriteString("COALESCE(mb.url, ''), ")
			mbField = "mb.url"
		} else {
			b.WriteString("CAST(m.mailbox AS TEXT), ")
			mbField = "CAST(m.mailbox AS TEXT)"
		}
		b.WriteString(readExpr + " FROM " + s.table + " m")
		b.WriteString(" LEFT JOIN subjects s ON m.subject = s.ROWID")
		b.WriteString(" LEFT JOIN addresses a ON m.sender = a.ROWID")
		if s.hasBoxes {
			b.WriteString(" LEFT JOIN mailboxes mb ON m.mailbox = mb.ROWID")
		}
	} else {
		senderCol := "m.sender"
		if s.columns["sender_address"] {
			senderCol = "m.sender_address"
		}
		b.WriteString("SELECT m.ROWID, CAST(m.subject AS TEXT), CAST(" + senderCol + " AS TEXT), '', m.date_received, CAST(m.mailbox AS TEXT), " + readExpr)
		b.WriteString(" FROM " + s.table + " m")
		mbField = "CAST(m.mailbox AS TEXT)"
	}

	if opts.SinceDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -opts.SinceDays)
		// Both timestamp conventions pass this bound; rows are
		// re-checked after conversion.
		where = append(where, "m.date_received >= ?")
		params = append(params, cutoff.Unix()-macAbsoluteEpochOffset)
	}
	if opts.UnreadOnly && s.columns["read"] {
		where = append(where, "m.read = 0")
	}
	if opts.Mailbox != "" {
		where = append(where, mbField+" LIKE ?")
		params = append(params, "%"+opts.Mailbox+"%")
	}
	if opts.Account != "" {
		where = append(where, mbField+" LIKE ?")
		params = append(params, "%"+opts.Account+"%")
	}

	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY m.date_received DESC LIMIT ?")
	params = append(params, limit)

	return b.String(), params, cutoff
}

// Accounts derives account identities from mailbox URLs, which carry
// the form scheme://user@host/path
func (s *AppleMailSource) Accounts(ctx context.Context) ([]string, error) {
	if !s.hasBoxes {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT url FROM mailboxes WHERE url IS NOT NULL AND url != ''")
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan mailbox url: %w", err)
		}
		if account := accountFromMailboxURL(u); account != "" {
			seen[account] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mailbox urls: %w", err)
	}

	accounts := make([]string, 0, len(seen))
	for a := range seen {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)
	return accounts, nil
}

// Mailboxes lists the store's mailbox names
func (s *AppleMailSource) Mailboxes(ctx context.Context) ([]string, error) {
	query := "SELECT DISTINCT CAST(mailbox AS TEXT) FROM " + s.table + " WHERE mailbox IS NOT NULL"
	if s.hasBoxes {
		query = "SELECT DISTINCT url FROM mailboxes WHERE url IS NOT NULL AND url != ''"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}
	defer rows.Close()

	var boxes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan mailbox name: %w", err)
		}
		boxes = append(boxes, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mailbox names: %w", err)
	}

	sort.Strings(boxes)
	return boxes, nil
}

// Close releases the database handle
func (s *AppleMailSource) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close envelope index: %w", err)
	}
	return nil
}

// convertMailTimestamp accepts either storage convention: values are
// Unix seconds unless they predate 2001 when read that way, in which
// case they are Mac absolute time.
func convertMailTimestamp(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	if v < macAbsoluteEpochOffset {
		return time.Unix(v+macAbsoluteEpochOffset, 0)
	}
	return time.Unix(v, 0)
}

// senderDisplay rebuilds a display form when the schema splits the
// sender into comment and address rows
func senderDisplay(name, address string) string {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name != "" && address != "" {
		return name + " <" + address + ">"
	}
	if address != "" {
		return address
	}
	return name
}

// accountFromMailboxURL reduces scheme://user@host/path to the
// account identity scheme://user@host
func accountFromMailboxURL(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	account := u.Scheme + "://"
	if u.User != nil && u.User.Username() != "" {
		account += u.User.Username() + "@"
	}
	account += u.Host
	return account
}
