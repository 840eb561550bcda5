package notion

import (
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// Page is a journal entry page of a Notion database.
type Page struct {
	ID    string
	Title string
	// Date is the value of the configured date property, zero when absent.
	Date           time.Time
	LastEditedTime time.Time
	URL            string
	Blocks         Blocks
}

// Block is a content block with its nested children. Only the rich text is kept.
type Block struct {
	ID       string
	Type     notionapi.BlockType
	RichText []notionapi.RichText
	Checked  bool
	Children Blocks
}

type Blocks []Block

// Text renders blocks as plain markdown-like text. Annotations and links are dropped so the
// text embeds the same way as a hand-written note.
func (b Blocks) Text() string {
	var sb strings.Builder
	b.write(&sb, 0)
	return strings.TrimSpace(sb.String())
}

func (b Blocks) write(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	counter := 0

	for _, block := range b {
		if block.Type == notionapi.BlockTypeNumberedListItem {
			counter++
		} else {
			counter = 0
		}

		text := plainText(block.RichText)
		switch block.Type {
		case notionapi.BlockTypeHeading1:
			fmt.Fprintf(sb, "%s# %s\n", indent, text)
		case notionapi.BlockTypeHeading2:
			fmt.Fprintf(sb, "%s## %s\n", indent, text)
		case notionapi.BlockTypeHeading3:
			fmt.Fprintf(sb, "%s### %s\n", indent, text)
		case notionapi.BlockTypeBulletedListItem:
			fmt.Fprintf(sb, "%s- %s\n", indent, text)
		case notionapi.BlockTypeNumberedListItem:
			fmt.Fprintf(sb, "%s%d. %s\n", indent, counter, text)
		case notionapi.BlockTypeQuote, notionapi.BlockTypeCallout:
			fmt.Fprintf(sb, "%s> %s\n", indent, text)
		case notionapi.BlockTypeToDo:
			mark := " "
			if block.Checked {
				mark = "x"
			}
			fmt.Fprintf(sb, "%s- [%s] %s\n", indent, mark, text)
		case notionapi.BlockTypeDivider:
			sb.WriteString("\n")
		default:
			if text != "" {
				fmt.Fprintf(sb, "%s%s\n", indent, text)
			}
		}

		if len(block.Children) > 0 {
			block.Children.write(sb, depth+1)
		}
	}
}

func plainText(rts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

// richTextOf returns the rich text of the block types that carry journal content.
func richTextOf(block notionapi.Block) ([]notionapi.RichText, bool) {
	switch v := block.(type) {
	case *notionapi.ParagraphBlock:
		return v.Paragraph.RichText, false
	case *notionapi.Heading1Block:
		return v.Heading1.RichText, false
	case *notionapi.Heading2Block:
		return v.Heading2.RichText, false
	case *notionapi.Heading3Block:
		return v.Heading3.RichText, false
	case *notionapi.BulletedListItemBlock:
		return v.BulletedListItem.RichText, false
	case *notionapi.NumberedListItemBlock:
		return v.NumberedListItem.RichText, false
	case *notionapi.QuoteBlock:
		return v.Quote.RichText, false
	case *notionapi.CalloutBlock:
		return v.Callout.RichText, false
	case *notionapi.ToggleBlock:
		return v.Toggle.RichText, false
	case *notionapi.ToDoBlock:
		return v.ToDo.RichText, v.ToDo.Checked
	default:
		return nil, false
	}
}

// pageTitle returns the plain text of the page's title property.
func pageTitle(props notionapi.Properties) string {
	for _, prop := range props {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return plainText(title.Title)
		}
	}
	return ""
}

// pageDate returns the start of the named date property.
func pageDate(props notionapi.Properties, name string) (time.Time, bool) {
	if name == "" {
		return time.Time{}, false
	}
	prop, ok := props[name].(*notionapi.DateProperty)
	if !ok || prop.Date == nil || prop.Date.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*prop.Date.Start), true
}
