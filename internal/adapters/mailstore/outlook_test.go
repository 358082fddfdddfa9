package mailstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func buildOutlookDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Outlook.sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE Mail (
			Record_RecordID INTEGER PRIMARY KEY,
			Record_FolderID INTEGER,
			Message_NormalizedSubject TEXT,
			Message_SenderAddressList TEXT,
			Message_Preview TEXT,
			Message_TimeReceived INTEGER,
			Message_ReadFlag INTEGER
		)`,
		`CREATE TABLE Folders (
			Record_RecordID INTEGER PRIMARY KEY,
			Record_AccountUID INTEGER,
			Folder_Name TEXT
		)`,
		`CREATE TABLE AccountsMail (
			Record_RecordID INTEGER PRIMARY KEY,
			Account_EmailAddress TEXT
		)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	_, err = db.Exec(`INSERT INTO AccountsMail (Record_RecordID, Account_EmailAddress) VALUES
		(1, 'me@company.com')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO Folders (Record_RecordID, Record_AccountUID, Folder_Name) VALUES
		(10, 1, 'Inbox'),
		(11, 1, 'Archive')`)
	require.NoError(t, err)

	now := time.Now()
	_, err = db.Exec(`INSERT INTO Mail
		(Record_RecordID, Record_FolderID, Message_NormalizedSubject, Message_SenderAddressList, Message_Preview, Message_TimeReceived, Message_ReadFlag) VALUES
		(201, 10, 'Can you review this?', 'The Boss <boss@company.com>', 'Can you review by Friday?', ?, 0),
		(202, 10, 'Weekly digest', 'noreply@list.example', 'Click to unsubscribe', ?, 1),
		(203, 11, 'Archived thread', 'old@example.com', 'old preview', ?, 1)`,
		now.Add(-1*time.Hour).Unix(),
		now.Add(-2*time.Hour).Unix(),
		now.AddDate(0, 0, -30).Unix())
	require.NoError(t, err)

	return path
}

func openTestOutlook(t *testing.T) *OutlookSource {
	t.Helper()
	source, err := NewOutlookSource(buildOutlookDB(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { source.Close() })
	return source
}

func TestOutlookQueryMessages(t *testing.T) {
	source := openTestOutlook(t)

	records, err := source.QueryMessages(context.Background(), core.QueryOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "201", first.ID)
	assert.Equal(t, "boss@company.com", first.SenderAddress, "display form reduces to the address")
	assert.Equal(t, "Can you review this?", first.Subject)
	assert.Equal(t, "Can you review by Friday?", first.PreviewText)
	assert.True(t, first.IsUnread)
	assert.Equal(t, "Inbox", first.MailboxPath)
}

func TestOutlookUnreadFilter(t *testing.T) {
	source := openTestOutlook(t)

	records, err := source.QueryMessages(context.Background(), core.QueryOptions{Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "201", records[0].ID)
}

func TestOutlookMailboxFilter(t *testing.T) {
	source := openTestOutlook(t)

	records, err := source.QueryMessages(context.Background(), core.QueryOptions{Limit: 10, Mailbox: "Archive"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "203", records[0].ID)
}

func TestOutlookSinceFilter(t *testing.T) {
	source := openTestOutlook(t)

	records, err := source.QueryMessages(context.Background(), core.QueryOptions{Limit: 10, SinceDays: 7})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.NotEqual(t, "203", record.ID)
	}
}

func TestOutlookAccountFilter(t *testing.T) {
	source := openTestOutlook(t)

	records, err := source.QueryMessages(context.Background(), core.QueryOptions{Limit: 10, Account: "me@company.com"})
	require.NoError(t, err)
	require.NotEmpty(t, records)
}

func TestOutlookAccounts(t *testing.T) {
	source := openTestOutlook(t)

	accounts, err := source.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"me@company.com"}, accounts)
}

func TestOutlookMailboxes(t *testing.T) {
	source := openTestOutlook(t)

	boxes, err := source.Mailboxes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Archive", "Inbox"}, boxes)
}

func TestOutlookMissingDatabase(t *testing.T) {
	_, err := NewOutlookSource(filepath.Join(t.TempDir(), "absent"), zap.NewNop())
	assert.Error(t, err)
}
