package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonwraymond/kfin/entity"
)

const (
	corpCodeOperation = "corpCode"
	corpCodeFile      = "CORPCODE.xml"
)

// corpCodeEntry is one <list> element of CORPCODE.xml.
type corpCodeEntry struct {
	CorpCode   string `xml:"corp_code"`
	CorpName   string `xml:"corp_name"`
	StockCode  string `xml:"stock_code"`
	ModifyDate string `xml:"modify_date"`
}

// xmlStatus is the body OpenDART sends instead of the archive on failure.
type xmlStatus struct {
	Status  string `xml:"status"`
	Message string `xml:"message"`
}

// CorpCodes downloads the full company list. The result is not cached here;
// persist it with entity.SaveSnapshotFile.
func (c *Client) CorpCodes(ctx context.Context) ([]entity.CompanyRecord, error) {
	body, err := c.get(ctx, corpCodeOperation, "/api/corpCode.xml", nil)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(body, []byte("PK")) {
		return nil, decodeXMLStatus(body)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: corpCode archive: %v", ErrMalformedResponse, err)
	}
	for _, f := range zr.File {
		if !strings.EqualFold(f.Name, corpCodeFile) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrMalformedResponse, f.Name, err)
		}
		defer rc.Close()
		return ParseCorpCodes(rc)
	}
	return nil, fmt.Errorf("%w: %s missing from archive", ErrMalformedResponse, corpCodeFile)
}

// ParseCorpCodes reads CORPCODE.xml. Blank stock codes become unlisted
// records.
func ParseCorpCodes(r io.Reader) ([]entity.CompanyRecord, error) {
	dec := xml.NewDecoder(r)
	var records []entity.CompanyRecord
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, corpCodeFile, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "list" {
			continue
		}
		var e corpCodeEntry
		if err := dec.DecodeElement(&e, &start); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, corpCodeFile, err)
		}
		records = append(records, entity.CompanyRecord{
			RegistryCode: strings.TrimSpace(e.CorpCode),
			Name:         strings.TrimSpace(e.CorpName),
			Ticker:       strings.TrimSpace(e.StockCode),
			LastModified: strings.TrimSpace(e.ModifyDate),
		})
	}
}

func decodeXMLStatus(body []byte) error {
	var st xmlStatus
	if err := xml.Unmarshal(body, &st); err != nil || st.Status == "" {
		return fmt.Errorf("%w: corpCode response is neither an archive nor a status", ErrMalformedResponse)
	}
	if err := statusError(st.Status, st.Message); err != nil {
		return err
	}
	return fmt.Errorf("%w: corpCode status %s without archive", ErrMalformedResponse, st.Status)
}
