package uasset

import (
	"encoding/json"

	"github.com/ErwinsExpertise/go-wwise-export/ueio"
	"github.com/ossrs/go-oryx-lib/errors"
)

// FormatWEM is the format Decode reports for Wwise media.
const FormatWEM = "WEM"

const maxMediaChunks = 64

type MediaDataChunk struct {
	IsPrefetch bool
	Data       *BulkData
}

func (c *MediaDataChunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		IsPrefetch bool   `json:"isPrefetch"`
		Location   string `json:"location"`
		Size       int64  `json:"size"`
	}{c.IsPrefetch, c.Data.Location(), c.Data.ElementCount})
}

// MediaAssetData is the native data of AkMediaAssetData: the encoded
// media, optionally split into a small prefetch chunk and the full media.
type MediaAssetData struct {
	DataChunks []*MediaDataChunk `json:"dataChunks"`
}

func readMediaAssetData(p *Package, r *ueio.Reader, e *Export) (interface{}, error) {
	n := r.Int32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if n < 0 || n > maxMediaChunks {
		return nil, errors.Errorf("invalid media chunk count %v", n)
	}
	m := &MediaAssetData{DataChunks: make([]*MediaDataChunk, 0, n)}
	for i := 0; i < int(n); i++ {
		c := &MediaDataChunk{IsPrefetch: r.Bool32()}
		data, err := p.readBulkData(r)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %v", i)
		}
		c.Data = data
		m.DataChunks = append(m.DataChunks, c)
	}
	return m, nil
}

// Decode returns the full media: every chunk that is not a prefetch chunk,
// in order, or the first chunk when every chunk is a prefetch chunk.
func (m *MediaAssetData) Decode() (string, []byte, error) {
	if len(m.DataChunks) == 0 {
		return "", nil, errors.New("media asset has no data chunks")
	}
	var chunks []*MediaDataChunk
	for _, c := range m.DataChunks {
		if !c.IsPrefetch {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		chunks = m.DataChunks[:1]
	}

	var data []byte
	for i, c := range chunks {
		b, err := c.Data.Bytes()
		if err != nil {
			return "", nil, errors.Wrapf(err, "media chunk %v", i)
		}
		if len(chunks) == 1 {
			data = b
		} else {
			data = append(data, b...)
		}
	}
	if len(data) == 0 {
		return "", nil, errors.Wrapf(ErrNoBulkData, "media chunk is %v", chunks[0].Data.Location())
	}
	return FormatWEM, data, nil
}
