package mailstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// angleAddrExpr pulls the address out of "Name <addr@host>" sender
// lists
var angleAddrExpr = regexp.MustCompile(`<([^>]+)>`)

// OutlookSource reads the Outlook for Mac profile database. The Mail
// table carries message metadata directly, including a short body
// preview, so no data files need opening.
type OutlookSource struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger
}

// FindOutlookDB locates the profile database for Outlook 2016 and
// later
func FindOutlookDB() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	profile := filepath.Join(home, "Library", "Group Containers", "UBF8T346G9.Office",
		"Outlook", "Outlook 15 Profiles", "Main Profile")
	for _, candidate := range []string{
		filepath.Join(profile, "Data", "Outlook.sqlite"),
		filepath.Join(profile, "Outlook.sqlite"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no Outlook database found under %s", profile)
}

// NewOutlookSource opens the Outlook database at dbPath, or the
// auto-discovered one when dbPath is empty
func NewOutlookSource(dbPath string, logger *zap.Logger) (*OutlookSource, error) {
	if dbPath == "" {
		found, err := FindOutlookDB()
		if err != nil {
			return nil, err
		}
		dbPath = found
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("outlook database not found at %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", readOnlyURI(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open outlook database: %w", err)
	}

	logger.Debug("Opened Outlook profile database", zap.String("path", dbPath))

	return &OutlookSource{db: db, dbPath: dbPath, logger: logger}, nil
}

// QueryMessages returns records matching the options, newest first
func (s *OutlookSource) QueryMessages(ctx context.Context, opts core.QueryOptions) ([]core.MessageRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var (
		b      strings.Builder
		where  []string
		params []interface{}
	)

	b.WriteString("SELECT Mail.Record_RecordID, COALESCE(Mail.Message_NormalizedSubject, ''), ")
	b.WriteString("COALESCE(Mail.Message_SenderAddressList, ''), COALESCE(Mail.Message_Preview, ''), ")
	b.WriteString("Mail.Message_TimeReceived, Mail.Message_ReadFlag, COALESCE(Folders.Folder_Name, '') ")
	b.WriteString("FROM Mail LEFT JOIN Folders ON Mail.Record_FolderID = Folders.Record_RecordID")
	if opts.Account != "" {
		b.WriteString(" LEFT JOIN AccountsMail ON Folders.Record_AccountUID = AccountsMail.Record_RecordID")
	}

	if opts.SinceDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -opts.SinceDays)
		where = append(where, "Mail.Message_TimeReceived >= ?")
		params = append(params, cutoff.Unix())
	}
	if opts.UnreadOnly {
		where = append(where, "Mail.Message_ReadFlag = 0")
	}
	if opts.Mailbox != "" {
		where = append(where, "Folders.Folder_Name LIKE ?")
		params = append(params, "%"+opts.Mailbox+"%")
	}
	if opts.Account != "" {
		// Account linking through Folders is unreliable in some
		// profiles, so fall back to matching the sender domain.
		if at := strings.Index(opts.Account, "@"); at >= 0 {
			where = append(where, "(AccountsMail.Account_EmailAddress LIKE ? OR Mail.Message_SenderAddressList LIKE ?)")
			params = append(params, "%"+opts.Account+"%", "%@"+opts.Account[at+1:]+"%")
		} else {
			where = append(where, "AccountsMail.Account_EmailAddress LIKE ?")
			params = append(params, "%"+opts.Account+"%")
		}
	}

	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY Mail.Message_TimeReceived DESC LIMIT ?")
	params = append(params, limit)

	rows, err := s.db.QueryContext(ctx, b.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outlook database: %w", err)
	}
	defer rows.Close()

	var records []core.MessageRecord
	for rows.Next() {
		var (
			id       int64
			subject  sql.NullString
			sender   sql.NullString
			preview  sql.NullString
			received sql.NullFloat64
			readFlag sql.NullInt64
			folder   sql.NullString
		)
		if err := rows.Scan(&id, &subject, &sender, &preview, &received, &readFlag, &folder); err != nil {
			return nil, fmt.Errorf("failed to scan outlook row: %w", err)
		}

		var receivedAt time.Time
		if received.Valid && received.Float64 > 0 {
			receivedAt = time.Unix(int64(received.Float64), 0)
		}

		records = append(records, core.MessageRecord{
			ID:            strconv.FormatInt(id, 10),
			SenderAddress: extractSenderAddress(sender.String),
			Subject:       subject.String,
			PreviewText:   preview.String,
			IsUnread:      readFlag.Valid && readFlag.Int64 == 0,
			ReceivedAt:    receivedAt,
			MailboxPath:   folder.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outlook rows: %w", err)
	}

	return records, nil
}

// Accounts lists the configured account addresses
func (s *OutlookSource) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT Account_EmailAddress FROM AccountsMail WHERE Account_EmailAddress IS NOT NULL AND Account_EmailAddress != ''")
	if err != nil {
		return nil, fmt.Errorf("failed to list outlook accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("failed to scan account address: %w", err)
		}
		accounts = append(accounts, address)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account addresses: %w", err)
	}

	sort.Strings(accounts)
	return accounts, nil
}

// Mailboxes lists folder names
func (s *OutlookSource) Mailboxes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT Folder_Name FROM Folders WHERE Folder_Name IS NOT NULL AND Folder_Name != ''")
	if err != nil {
		return nil, fmt.Errorf("failed to list outlook folders: %w", err)
	}
	defer rows.Close()

	var boxes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan folder name: %w", err)
		}
		boxes = append(boxes, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folder names: %w", err)
	}

	sort.Strings(boxes)
	return boxes, nil
}

// Close releases the database handle
func (s *OutlookSource) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close outlook database: %w", err)
	}
	return nil
}

// extractSenderAddress reduces "Name <addr@host>" to addr@host,
// keeping other forms untouched
func extractSenderAddress(sender string) string {
	if m := angleAddrExpr.FindStringSubmatch(sender); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(sender)
}
