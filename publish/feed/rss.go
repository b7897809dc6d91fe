// Package feed renders the daily briefing as a single-item RSS 2.0 document
// for voice-assistant flash briefing readers.
package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPath is where the briefing feed is written.
const DefaultPath = "briefing.xml"

// DefaultGUIDPrefix prefixes the per-day item guid.
const DefaultGUIDPrefix = "mj-briefing"

const dayLayout = "2006-01-02"

// Channel holds the fixed channel metadata.
type Channel struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}

// DefaultChannel returns the stock channel metadata.
func DefaultChannel() Channel {
	return Channel{
		Title:       "Morning Briefing",
		Link:        "https://newghostisfun.github.io/daily-briefing/",
		Description: "Private daily briefing",
		Language:    "en-gb",
	}
}

// Item is the one briefing entry of a feed.
type Item struct {
	Title   string
	Text    string
	PubDate time.Time
	GUID    string
}

// NewItem builds the item for a briefing generated at now.
func NewItem(text string, now time.Time, guidPrefix string) Item {
	if guidPrefix == "" {
		guidPrefix = DefaultGUIDPrefix
	}
	day := now.UTC().Format(dayLayout)
	return Item{
		Title:   "Daily Briefing - " + day,
		Text:    text,
		PubDate: now,
		GUID:    guidPrefix + "-" + day,
	}
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Language    string  `xml:"language"`
	Item        rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Description cdata   `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Render produces the feed document. The pubDate is RFC 822 in UTC.
func Render(ch Channel, item Item) ([]byte, error) {
	if ch.Title == "" || ch.Link == "" {
		return nil, errors.New("channel title and link are required")
	}
	if item.Text == "" {
		return nil, errors.New("item text is required")
	}
	if item.GUID == "" {
		return nil, errors.New("item guid is required")
	}
	if i := strings.IndexFunc(item.Text, notXMLChar); i >= 0 {
		return nil, fmt.Errorf("item text has a character XML cannot carry at byte %d", i)
	}

	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        ch.Link,
			Description: ch.Description,
			Language:    ch.Language,
			Item: rssItem{
				Title:       item.Title,
				Description: cdata{Text: item.Text},
				PubDate:     item.PubDate.UTC().Format(time.RFC1123Z),
				GUID:        rssGUID{IsPermaLink: "false", Value: item.GUID},
			},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}

	data := make([]byte, 0, len(xml.Header)+len(out)+1)
	data = append(data, xml.Header...)
	data = append(data, out...)
	data = append(data, '\n')
	return data, nil
}

func notXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r >= 0x20 && r <= 0xD7FF,
		r >= 0xE000 && r <= 0xFFFD,
		r >= 0x10000 && r <= 0x10FFFF:
		return false
	}
	return true
}

// WriteFile replaces path with data. The content is written to a temporary
// file in the same directory and renamed over path, so readers never see a
// partial feed.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feed directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp feed: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp feed: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp feed: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace feed: %w", err)
	}
	return nil
}
