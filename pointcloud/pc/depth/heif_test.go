package depth

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u16b(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u32b(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

func mkBox(typ string, parts ...[]byte) []byte {
	body := bytes.Join(parts, nil)
	out := u32b(uint32(8 + len(body)))
	out = append(out, typ...)
	return append(out, body...)
}

func mkFull(typ string, version uint8, flags uint32, parts ...[]byte) []byte {
	vf := u32b(uint32(version)<<24 | flags&0xFFFFFF)
	return mkBox(typ, append([][]byte{vf}, parts...)...)
}

// testHEIF builds a minimal HEIF container: item 1 is the primary image,
// item 2 an auxiliary image of auxType linked to item 1 by an auxl
// reference.
func testHEIF(auxType string) []byte {
	ftyp := mkBox("ftyp", []byte("heic"), u32b(0), []byte("mif1heic"))
	hdlr := mkFull("hdlr", 0, 0, u32b(0), []byte("pict"), make([]byte, 13))
	pitm := mkFull("pitm", 0, 0, u16b(1))
	iinf := mkFull("iinf", 0, 0, u16b(2),
		mkFull("infe", 2, 0, u16b(1), u16b(0), []byte("hvc1"), []byte{0}),
		mkFull("infe", 2, 0, u16b(2), u16b(0), []byte("hvc1"), []byte{0}),
	)
	iref := mkFull("iref", 0, 0, mkBox("auxl", u16b(2), u16b(1), u16b(1)))
	ipco := mkBox("ipco",
		mkFull("ispe", 0, 0, u32b(4), u32b(4)),
		mkFull("auxC", 0, 0, []byte(auxType), []byte{0}),
	)
	ipma := mkFull("ipma", 0, 0, u32b(2),
		u16b(1), []byte{1, 0x81},
		u16b(2), []byte{2, 0x01, 0x02},
	)
	iprp := mkBox("iprp", ipco, ipma)
	meta := mkFull("meta", 0, 0, hdlr, pitm, iinf, iref, iprp)
	return append(ftyp, meta...)
}

func TestReadHEIFInfoFindsDepth(t *testing.T) {
	info, err := ReadHEIFInfo(testHEIF(DepthAuxType))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), info.PrimaryID)
	assert.Equal(t, "hvc1", info.ItemTypes[1])
	assert.Equal(t, "hvc1", info.ItemTypes[2])

	item, ok := info.DepthItem()
	require.True(t, ok)
	assert.Equal(t, AuxItem{ID: 2, Type: DepthAuxType, Of: 1}, item)
}

func TestReadHEIFInfoPortraitFixture(t *testing.T) {
	data, err := os.ReadFile("testdata/portrait.heic")
	require.NoError(t, err)
	assert.True(t, looksLikeHEIF(data))

	info, err := ReadHEIFInfo(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), info.PrimaryID)
	assert.Equal(t, map[uint32]string{1: "hvc1", 2: "hvc1"}, info.ItemTypes)
	item, ok := info.DepthItem()
	require.True(t, ok)
	assert.Equal(t, AuxItem{ID: 2, Type: DepthAuxType, Of: 1}, item)
}

func TestReadHEIFInfoWideReferences(t *testing.T) {
	data := testHEIF(DepthAuxType)
	// Rewrite the iref as version 1 with 32-bit item IDs.
	narrow := mkFull("iref", 0, 0, mkBox("auxl", u16b(2), u16b(1), u16b(1)))
	wide := mkFull("iref", 1, 0, mkBox("auxl", u32b(2), u16b(1), u32b(1)))
	i := bytes.Index(data, narrow)
	require.GreaterOrEqual(t, i, 0)
	data = append(append(append([]byte{}, data[:i]...), wide...), data[i+len(narrow):]...)
	metaAt := len(mkBox("ftyp", []byte("heic"), u32b(0), []byte("mif1heic")))
	binary.BigEndian.PutUint32(data[metaAt:], uint32(len(data)-metaAt))

	info, err := ReadHEIFInfo(data)
	require.NoError(t, err)
	item, ok := info.DepthItem()
	require.True(t, ok)
	assert.Equal(t, uint32(1), item.Of)
}

func TestReadHEIFInfoTruncatedReference(t *testing.T) {
	data := testHEIF(DepthAuxType)
	good := mkBox("auxl", u16b(2), u16b(1), u16b(1))
	bad := mkBox("auxl", u16b(2), u16b(3), u16b(1))
	i := bytes.Index(data, good)
	require.GreaterOrEqual(t, i, 0)
	copy(data[i:], bad)

	_, err := ReadHEIFInfo(data)
	assert.ErrorIs(t, err, ErrMalformedHEIF)
}

func TestReadHEIFInfoWithoutDepth(t *testing.T) {
	info, err := ReadHEIFInfo(testHEIF("urn:mpeg:hevc:2015:auxid:1"))
	require.NoError(t, err)
	require.Len(t, info.Aux, 1)
	_, ok := info.DepthItem()
	assert.False(t, ok)
}

func TestReadHEIFInfoMalformed(t *testing.T) {
	_, err := ReadHEIFInfo([]byte{0, 0, 0, 9, 'f', 't'})
	assert.ErrorIs(t, err, ErrMalformedHEIF)

	_, err = ReadHEIFInfo(mkBox("ftyp", []byte("heic"), u32b(0)))
	assert.ErrorIs(t, err, ErrMalformedHEIF)

	// Box claims more bytes than present.
	bad := testHEIF(DepthAuxType)
	binary.BigEndian.PutUint32(bad[len(mkBox("ftyp", []byte("heic"), u32b(0), []byte("mif1heic"))):], 1<<20)
	_, err = ReadHEIFInfo(bad)
	assert.ErrorIs(t, err, ErrMalformedHEIF)
}

func TestLooksLikeHEIF(t *testing.T) {
	assert.True(t, looksLikeHEIF(testHEIF(DepthAuxType)))
	assert.False(t, looksLikeHEIF(mkBox("ftyp", []byte("isom"), u32b(0))))
	assert.False(t, looksLikeHEIF([]byte("short")))
}
