package mailstore

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// maxBodyBytes caps how much of any body part is read for the preview
const maxBodyBytes = 10240

// maxPartDepth bounds recursion into nested multipart containers
const maxPartDepth = 4

// FileSource reads RFC 822 messages from .eml and .emlx files under a
// directory, or from a single file. Messages handed to it this way
// are always treated as unread.
type FileSource struct {
	root   string
	text   *utils.TextProcessor
	logger *zap.Logger
}

// NewFileSource creates a source over root, which may be a file or a
// directory
func NewFileSource(root string, text *utils.TextProcessor, logger *zap.Logger) (*FileSource, error) {
	if root == "" {
		return nil, fmt.Errorf("message file path is required")
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("message path not found at %s: %w", root, err)
	}
	return &FileSource{root: root, text: text, logger: logger}, nil
}

// QueryMessages parses every message file under the root and returns
// records matching the options, newest first
func (s *FileSource) QueryMessages(ctx context.Context, opts core.QueryOptions) ([]core.MessageRecord, error) {
	paths, err := s.messagePaths()
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if opts.SinceDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -opts.SinceDays)
	}

	var records []core.MessageRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := ReadMessageFile(path)
		if err != nil {
			s.logger.Warn("Skipping unparsable message file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		record.PreviewText = s.text.SanitizeUTF8(record.PreviewText)

		if !cutoff.IsZero() && !record.ReceivedAt.IsZero() && record.ReceivedAt.Before(cutoff) {
			continue
		}
		if opts.Mailbox != "" && !strings.Contains(record.MailboxPath, opts.Mailbox) {
			continue
		}

		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ReceivedAt.Equal(records[j].ReceivedAt) {
			return records[i].MailboxPath < records[j].MailboxPath
		}
		return records[i].ReceivedAt.After(records[j].ReceivedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Accounts is not derivable from loose message files
func (s *FileSource) Accounts(ctx context.Context) ([]string, error) {
	return nil, nil
}

// Mailboxes lists the directories that contain message files
func (s *FileSource) Mailboxes(ctx context.Context) ([]string, error) {
	paths, err := s.messagePaths()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, path := range paths {
		seen[filepath.Dir(path)] = struct{}{}
	}

	boxes := make([]string, 0, len(seen))
	for dir := range seen {
		boxes = append(boxes, dir)
	}
	sort.Strings(boxes)
	return boxes, nil
}

// Close is a no-op for file sources
func (s *FileSource) Close() error {
	return nil
}

func (s *FileSource) messagePaths() ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat message path: %w", err)
	}
	if !info.IsDir() {
		return []string{s.root}, nil
	}

	var paths []string
	err = filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".eml", ".emlx":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk message directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ReadMessageFile parses one .eml or .emlx file into a record
func ReadMessageFile(path string) (core.MessageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.MessageRecord{}, fmt.Errorf("failed to open message file: %w", err)
	}
	defer f.Close()

	record, err := ParseMessage(f)
	if err != nil {
		return core.MessageRecord{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	record.MailboxPath = filepath.Dir(path)
	return record, nil
}

// ParseMessage reads an RFC 822 message, decoding headers and
// extracting a plain-text body preview. Apple's emlx framing, a
// leading byte-count line, is detected and skipped.
func ParseMessage(r io.Reader) (core.MessageRecord, error) {
	br := bufio.NewReader(r)
	if err := skipEmlxFraming(br); err != nil {
		return core.MessageRecord{}, err
	}

	msg, err := mail.ReadMessage(br)
	if err != nil {
		return core.MessageRecord{}, fmt.Errorf("failed to read message headers: %w", err)
	}

	decoder := &mime.WordDecoder{CharsetReader: charsetReader}

	subject := decodeHeaderWords(decoder, msg.Header.Get("Subject"))
	sender := decodeHeaderWords(decoder, msg.Header.Get("From"))

	var receivedAt time.Time
	if t, err := msg.Header.Date(); err == nil {
		receivedAt = t
	}

	body, err := extractTextBody(textHeader(msg.Header), msg.Body, 0)
	if err != nil {
		return core.MessageRecord{}, err
	}

	return core.MessageRecord{
		ID:            messageID(msg.Header, sender, subject, receivedAt),
		SenderAddress: extractSenderAddress(sender),
		Subject:       subject,
		PreviewText:   body,
		IsUnread:      true,
		ReceivedAt:    receivedAt,
	}, nil
}

// skipEmlxFraming consumes a leading all-digit line when present. The
// peeked bytes stay buffered, so plain RFC 822 input is unaffected.
func skipEmlxFraming(br *bufio.Reader) error {
	peek, err := br.Peek(32)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read message start: %w", err)
	}

	nl := -1
	for i, c := range peek {
		if c == '\n' {
			nl = i
			break
		}
	}
	if nl <= 0 {
		return nil
	}

	line := strings.TrimRight(string(peek[:nl]), "\r ")
	if line == "" {
		return nil
	}
	for _, c := range line {
		if c < '0' || c > '9' {
			return nil
		}
	}

	if _, err := br.Discard(nl + 1); err != nil {
		return fmt.Errorf("failed to skip emlx length line: %w", err)
	}
	return nil
}

// partHeader is the subset of header access the body walk needs,
// satisfied by both mail.Header and multipart part headers
type partHeader interface {
	Get(key string) string
}

type textHeader mail.Header

func (h textHeader) Get(key string) string {
	return mail.Header(h).Get(key)
}

// extractTextBody walks the MIME structure collecting the first
// text/plain part, falling back to text/html. HTML is returned as-is
// for the preview normalizer to strip.
func extractTextBody(header partHeader, body io.Reader, depth int) (string, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return readBodyText(header, body)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Broken Content-Type headers are common; treat the body as
		// plain text rather than failing the whole message.
		return readBodyText(header, body)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		if strings.HasPrefix(mediaType, "text/") || mediaType == "" {
			return readBodyText(header, body)
		}
		return "", nil
	}

	if depth >= maxPartDepth {
		return "", nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("multipart message without boundary")
	}

	var htmlFallback string
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Return what was found before the malformed part.
			break
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case partType == "text/plain" || partType == "":
			text, err := readBodyText(part.Header, part)
			part.Close()
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(text) != "" {
				return text, nil
			}
		case partType == "text/html":
			if htmlFallback == "" {
				text, err := readBodyText(part.Header, part)
				part.Close()
				if err != nil {
					return "", err
				}
				htmlFallback = text
			} else {
				part.Close()
			}
		case strings.HasPrefix(partType, "multipart/"):
			text, err := extractTextBody(part.Header, part, depth+1)
			part.Close()
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(text) != "" {
				return text, nil
			}
		default:
			part.Close()
		}
	}

	return htmlFallback, nil
}

// readBodyText applies transfer and charset decoding and reads up to
// maxBodyBytes
func readBodyText(header partHeader, body io.Reader) (string, error) {
	r := body
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, newBase64CleanReader(body))
	case "quoted-printable":
		r = quotedprintable.NewReader(body)
	}

	if _, params, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
		if cs := params["charset"]; cs != "" && !strings.EqualFold(cs, "utf-8") && !strings.EqualFold(cs, "us-ascii") {
			if cr, err := charsetReader(cs, r); err == nil {
				r = cr
			}
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read message body: %w", err)
	}
	return string(data), nil
}

// charsetReader resolves IANA charset labels through the html index,
// which covers the aliases found in real mail
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(strings.ToLower(strings.TrimSpace(charset)))
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// base64CleanReader drops whitespace so folded base64 bodies decode
type base64CleanReader struct {
	r io.Reader
}

func newBase64CleanReader(r io.Reader) io.Reader {
	return &base64CleanReader{r: r}
}

func (c *base64CleanReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	kept := 0
	for i := 0; i < n; i++ {
		switch p[i] {
		case '\r', '\n', ' ', '\t':
		default:
			p[kept] = p[i]
			kept++
		}
	}
	if kept == 0 && err == nil {
		// Everything in this chunk was whitespace; deliver the next
		// chunk instead of a zero-byte read.
		return c.Read(p)
	}
	return kept, err
}

// decodeHeaderWords decodes RFC 2047 encoded words, keeping the raw
// value when decoding fails
func decodeHeaderWords(decoder *mime.WordDecoder, value string) string {
	if value == "" {
		return ""
	}
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// messageID uses the Message-ID header when present and otherwise
// derives a stable identity from the envelope fields
func messageID(header mail.Header, sender, subject string, receivedAt time.Time) string {
	if id := strings.Trim(strings.TrimSpace(header.Get("Message-Id")), "<>"); id != "" {
		return id
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", sender, subject, receivedAt.Unix())
	return fmt.Sprintf("%016x", h.Sum64())
}
