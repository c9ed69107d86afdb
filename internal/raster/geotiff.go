package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldmap/internal/geo"
)

// TIFF field types.
const (
	tiffByte   = 1
	tiffASCII  = 2
	tiffShort  = 3
	tiffLong   = 4
	tiffSByte  = 6
	tiffSShort = 8
	tiffSLong  = 9
	tiffFloat  = 11
	tiffDouble = 12
)

// TIFF and GeoTIFF tags.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagTileWidth       = 322
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagModelTransform  = 34264
	tagGeoKeyDirectory = 34735
	tagGeoASCIIParams  = 34737
	tagGDALNoData      = 42113
)

// GeoKeys.
const (
	keyModelType      = 1024
	keyRasterType     = 1025
	keyCitation       = 1026
	keyGeographicType = 2048
	keyProjectedType  = 3072

	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsArea   = 1
	rasterPixelIsPoint  = 2
)

// maxTagBytes bounds a single tag payload read from disk.
const maxTagBytes = 1 << 26

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func typeSize(typ uint16) int {
	switch typ {
	case tiffByte, tiffASCII, tiffSByte:
		return 1
	case tiffShort, tiffSShort:
		return 2
	case tiffLong, tiffSLong, tiffFloat:
		return 4
	case tiffDouble:
		return 8
	}
	return 0
}

func shortEntry(tag uint16, vals ...uint16) ifdEntry {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return ifdEntry{tag: tag, typ: tiffShort, count: uint32(len(vals)), data: b}
}

func longEntry(tag uint16, vals ...uint32) ifdEntry {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return ifdEntry{tag: tag, typ: tiffLong, count: uint32(len(vals)), data: b}
}

func doubleEntry(tag uint16, vals ...float64) ifdEntry {
	b := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return ifdEntry{tag: tag, typ: tiffDouble, count: uint32(len(vals)), data: b}
}

func asciiEntry(tag uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: tiffASCII, count: uint32(len(b)), data: b}
}

// geoKeys builds the GeoKeyDirectory and the ASCII params it points into.
func geoKeys(crs string) ([]uint16, string) {
	type key struct{ id, loc, count, value uint16 }
	var keys []key
	var ascii string

	srid := geo.SRID(crs)
	if srid > 0 && srid <= math.MaxUint16 {
		if srid >= 4000 && srid < 5000 {
			keys = append(keys, key{keyModelType, 0, 1, modelTypeGeographic})
			keys = append(keys, key{keyGeographicType, 0, 1, uint16(srid)})
		} else {
			keys = append(keys, key{keyModelType, 0, 1, modelTypeProjected})
			keys = append(keys, key{keyProjectedType, 0, 1, uint16(srid)})
		}
	}
	keys = append(keys, key{keyRasterType, 0, 1, rasterPixelIsArea})
	if crs != "" && len(crs) < math.MaxUint16 {
		ascii = crs + "|"
		keys = append(keys, key{keyCitation, tagGeoASCIIParams, uint16(len(ascii)), 0})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].id < keys[j].id })

	dir := []uint16{1, 1, 0, uint16(len(keys))}
	for _, k := range keys {
		dir = append(dir, k.id, k.loc, k.count, k.value)
	}
	return dir, ascii
}

func encodeGeoTIFF(w io.Writer, f *Field) error {
	imageBytes := uint64(len(f.Data)) * 8
	if imageBytes > math.MaxUint32-(1<<20) {
		return eris.Errorf("raster: %d cells exceed the classic TIFF size limit", len(f.Data))
	}

	dir, ascii := geoKeys(f.CRS)
	entries := []ifdEntry{
		longEntry(tagImageWidth, uint32(f.Cols)),
		longEntry(tagImageLength, uint32(f.Rows)),
		shortEntry(tagBitsPerSample, 64),
		shortEntry(tagCompression, 1),
		shortEntry(tagPhotometric, 1),
		longEntry(tagStripOffsets, 0),
		shortEntry(tagSamplesPerPixel, 1),
		longEntry(tagRowsPerStrip, uint32(f.Rows)),
		longEntry(tagStripByteCounts, uint32(imageBytes)),
		shortEntry(tagPlanarConfig, 1),
		shortEntry(tagSampleFormat, 3),
		doubleEntry(tagModelPixelScale, f.Resolution, f.Resolution, 0),
		doubleEntry(tagModelTiepoint, 0, 0, 0, f.Origin.X, f.Origin.Y, 0),
		shortEntry(tagGeoKeyDirectory, dir...),
		asciiEntry(tagGDALNoData, strconv.FormatFloat(f.NoData, 'g', -1, 64)),
	}
	if ascii != "" {
		entries = append(entries, asciiEntry(tagGeoASCIIParams, ascii))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	// Layout: header, IFD, out-of-line tag data, image.
	ifdSize := 2 + 12*len(entries) + 4
	offsets := make([]uint32, len(entries))
	cursor := 8 + ifdSize
	for i, e := range entries {
		if len(e.data) > 4 {
			offsets[i] = uint32(cursor)
			cursor += len(e.data) + len(e.data)%2
		}
	}
	pad := (8 - cursor%8) % 8
	imageOffset := uint32(cursor + pad)
	for i := range entries {
		if entries[i].tag == tagStripOffsets {
			binary.LittleEndian.PutUint32(entries[i].data, imageOffset)
		}
	}

	var hdr bytes.Buffer
	hdr.WriteString("II")
	_ = binary.Write(&hdr, binary.LittleEndian, uint16(42))
	_ = binary.Write(&hdr, binary.LittleEndian, uint32(8))
	_ = binary.Write(&hdr, binary.LittleEndian, uint16(len(entries)))
	for i, e := range entries {
		_ = binary.Write(&hdr, binary.LittleEndian, e.tag)
		_ = binary.Write(&hdr, binary.LittleEndian, e.typ)
		_ = binary.Write(&hdr, binary.LittleEndian, e.count)
		if len(e.data) > 4 {
			_ = binary.Write(&hdr, binary.LittleEndian, offsets[i])
			continue
		}
		var inline [4]byte
		copy(inline[:], e.data)
		hdr.Write(inline[:])
	}
	_ = binary.Write(&hdr, binary.LittleEndian, uint32(0))
	for _, e := range entries {
		if len(e.data) > 4 {
			hdr.Write(e.data)
			if len(e.data)%2 == 1 {
				hdr.WriteByte(0)
			}
		}
	}
	hdr.Write(make([]byte, pad))
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return eris.Wrap(err, "raster: write tiff header")
	}

	row := make([]byte, 8*f.Cols)
	for r := 0; r < f.Rows; r++ {
		for c, v := range f.Data[r*f.Cols : (r+1)*f.Cols] {
			binary.LittleEndian.PutUint64(row[8*c:], math.Float64bits(v))
		}
		if _, err := w.Write(row); err != nil {
			return eris.Wrap(err, "raster: write tiff strip")
		}
	}
	return nil
}

type tiffReader struct {
	r     io.ReaderAt
	order binary.ByteOrder
	tags  map[uint16]ifdEntry
}

func decodeGeoTIFF(r io.ReaderAt) (*Field, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, eris.Wrap(err, "raster: read tiff header")
	}
	t := &tiffReader{r: r, tags: make(map[uint16]ifdEntry)}
	switch string(hdr[:2]) {
	case "II":
		t.order = binary.LittleEndian
	case "MM":
		t.order = binary.BigEndian
	default:
		return nil, eris.New("raster: not a tiff file")
	}
	if magic := t.order.Uint16(hdr[2:]); magic != 42 {
		return nil, eris.Errorf("raster: unsupported tiff version %d", magic)
	}
	if err := t.readIFD(int64(t.order.Uint32(hdr[4:]))); err != nil {
		return nil, err
	}

	if _, tiled := t.tags[tagTileWidth]; tiled {
		return nil, eris.New("raster: tiled tiffs are not supported")
	}
	cols, err := t.scalar(tagImageWidth, 0)
	if err != nil {
		return nil, err
	}
	rows, err := t.scalar(tagImageLength, 0)
	if err != nil {
		return nil, err
	}
	if cols == 0 || rows == 0 || cols*rows > math.MaxInt32 {
		return nil, eris.Errorf("raster: invalid image size %dx%d", cols, rows)
	}
	if spp, _ := t.scalar(tagSamplesPerPixel, 1); spp != 1 {
		return nil, eris.Errorf("raster: %d samples per pixel, only single-band rasters are supported", spp)
	}
	if comp, _ := t.scalar(tagCompression, 1); comp != 1 {
		return nil, eris.Errorf("raster: compression %d is not supported", comp)
	}
	bits, _ := t.scalar(tagBitsPerSample, 1)
	sampleFormat, _ := t.scalar(tagSampleFormat, 1)
	convert, err := sampleDecoder(t.order, sampleFormat, bits)
	if err != nil {
		return nil, err
	}

	pix, err := t.readStrips(int(rows*cols) * int(bits/8))
	if err != nil {
		return nil, err
	}
	step := int(bits / 8)
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = convert(pix[i*step:])
	}

	origin, res, err := t.georef()
	if err != nil {
		return nil, err
	}
	nodata := math.NaN()
	if e, ok := t.tags[tagGDALNoData]; ok {
		s := strings.TrimSpace(strings.TrimRight(string(e.data), "\x00"))
		if nodata, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, eris.Wrapf(err, "raster: parse nodata %q", s)
		}
	}

	return &Field{
		Data:       data,
		Rows:       int(rows),
		Cols:       int(cols),
		NoData:     nodata,
		Origin:     origin,
		Resolution: res,
		CRS:        t.crs(),
	}, nil
}

func (t *tiffReader) readIFD(offset int64) error {
	var nb [2]byte
	if _, err := t.r.ReadAt(nb[:], offset); err != nil {
		return eris.Wrap(err, "raster: read ifd")
	}
	n := int(t.order.Uint16(nb[:]))
	buf := make([]byte, 12*n)
	if _, err := t.r.ReadAt(buf, offset+2); err != nil {
		return eris.Wrap(err, "raster: read ifd entries")
	}
	for i := 0; i < n; i++ {
		raw := buf[12*i : 12*i+12]
		e := ifdEntry{
			tag:   t.order.Uint16(raw[0:]),
			typ:   t.order.Uint16(raw[2:]),
			count: t.order.Uint32(raw[4:]),
		}
		size := typeSize(e.typ) * int(e.count)
		if size == 0 {
			continue
		}
		if size > maxTagBytes {
			return eris.Errorf("raster: tag %d is too large", e.tag)
		}
		if size <= 4 {
			e.data = append([]byte(nil), raw[8:8+size]...)
		} else {
			e.data = make([]byte, size)
			if _, err := t.r.ReadAt(e.data, int64(t.order.Uint32(raw[8:]))); err != nil {
				return eris.Wrapf(err, "raster: read tag %d", e.tag)
			}
		}
		t.tags[e.tag] = e
	}
	return nil
}

// uints decodes an integer tag.
func (t *tiffReader) uints(tag uint16) []uint64 {
	e, ok := t.tags[tag]
	if !ok {
		return nil
	}
	out := make([]uint64, e.count)
	for i := range out {
		switch e.typ {
		case tiffByte:
			out[i] = uint64(e.data[i])
		case tiffShort:
			out[i] = uint64(t.order.Uint16(e.data[2*i:]))
		case tiffLong:
			out[i] = uint64(t.order.Uint32(e.data[4*i:]))
		default:
			return nil
		}
	}
	return out
}

func (t *tiffReader) scalar(tag uint16, def uint64) (uint64, error) {
	v := t.uints(tag)
	if len(v) == 0 {
		if def == 0 {
			return 0, eris.Errorf("raster: missing tiff tag %d", tag)
		}
		return def, nil
	}
	return v[0], nil
}

func (t *tiffReader) doubles(tag uint16) []float64 {
	e, ok := t.tags[tag]
	if !ok || e.typ != tiffDouble {
		return nil
	}
	out := make([]float64, e.count)
	for i := range out {
		out[i] = math.Float64frombits(t.order.Uint64(e.data[8*i:]))
	}
	return out
}

func (t *tiffReader) readStrips(total int) ([]byte, error) {
	offsets := t.uints(tagStripOffsets)
	counts := t.uints(tagStripByteCounts)
	if len(offsets) == 0 || len(offsets) != len(counts) {
		return nil, eris.New("raster: missing or inconsistent strip tags")
	}
	pix := make([]byte, 0, total)
	for i, off := range offsets {
		n := int(counts[i])
		if len(pix)+n > total {
			n = total - len(pix)
		}
		start := len(pix)
		pix = pix[:start+n]
		if _, err := t.r.ReadAt(pix[start:], int64(off)); err != nil {
			return nil, eris.Wrapf(err, "raster: read strip %d", i)
		}
		if len(pix) == total {
			break
		}
	}
	if len(pix) != total {
		return nil, eris.Errorf("raster: image data is %d bytes, expected %d", len(pix), total)
	}
	return pix, nil
}

func (t *tiffReader) georef() (geo.Coord, float64, error) {
	if _, ok := t.tags[tagModelTransform]; ok {
		return geo.Coord{}, 0, eris.New("raster: model transformation georeferencing is not supported")
	}
	scale := t.doubles(tagModelPixelScale)
	tie := t.doubles(tagModelTiepoint)
	if len(scale) < 2 || len(tie) < 6 {
		return geo.Coord{}, 0, eris.New("raster: missing georeferencing tags")
	}
	if scale[0] != scale[1] {
		return geo.Coord{}, 0, eris.Errorf("raster: non-square pixels %gx%g are not supported", scale[0], scale[1])
	}
	origin := geo.Coord{
		X: tie[3] - tie[0]*scale[0],
		Y: tie[4] + tie[1]*scale[1],
	}
	if t.geoKeys()[keyRasterType].value == rasterPixelIsPoint {
		origin.X -= scale[0] / 2
		origin.Y += scale[1] / 2
	}
	return origin, scale[0], nil
}

type geoKey struct {
	loc, count, value uint16
}

func (t *tiffReader) geoKeys() map[uint16]geoKey {
	keys := make(map[uint16]geoKey)
	dir := t.uints(tagGeoKeyDirectory)
	if len(dir) < 4 {
		return keys
	}
	n := int(dir[3])
	for i := 0; i < n && 4+4*i+3 < len(dir); i++ {
		k := dir[4+4*i:]
		keys[uint16(k[0])] = geoKey{loc: uint16(k[1]), count: uint16(k[2]), value: uint16(k[3])}
	}
	return keys
}

// crs prefers the citation string, which is where the identifier is stored
// verbatim, and falls back to an EPSG code key.
func (t *tiffReader) crs() string {
	keys := t.geoKeys()
	if k, ok := keys[keyCitation]; ok && k.loc == tagGeoASCIIParams {
		params := string(t.tags[tagGeoASCIIParams].data)
		end := int(k.value) + int(k.count)
		if end <= len(params) {
			return strings.TrimRight(params[k.value:end], "|\x00")
		}
	}
	for _, id := range []uint16{keyProjectedType, keyGeographicType} {
		if k, ok := keys[id]; ok && k.loc == 0 && k.value > 0 && k.value != math.MaxInt16 {
			return fmt.Sprintf("EPSG:%d", k.value)
		}
	}
	return ""
}

func sampleDecoder(order binary.ByteOrder, format, bits uint64) (func([]byte) float64, error) {
	switch {
	case format == 3 && bits == 64:
		return func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }, nil
	case format == 3 && bits == 32:
		return func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }, nil
	case format == 1 && bits == 8:
		return func(b []byte) float64 { return float64(b[0]) }, nil
	case format == 1 && bits == 16:
		return func(b []byte) float64 { return float64(order.Uint16(b)) }, nil
	case format == 1 && bits == 32:
		return func(b []byte) float64 { return float64(order.Uint32(b)) }, nil
	case format == 2 && bits == 8:
		return func(b []byte) float64 { return float64(int8(b[0])) }, nil
	case format == 2 && bits == 16:
		return func(b []byte) float64 { return float64(int16(order.Uint16(b))) }, nil
	case format == 2 && bits == 32:
		return func(b []byte) float64 { return float64(int32(order.Uint32(b))) }, nil
	}
	return nil, eris.Errorf("raster: unsupported sample format %d with %d bits", format, bits)
}
