package schema

import "strconv"

// Full-row dedup treats two rows as duplicates only when every field
// matches. AppendKey renders a row into a canonical byte form: fields
// joined with 0x1f, nil pointers marked 0x00 and present ones 0x01,
// strings length-prefixed so an embedded separator cannot alias a field
// boundary. Callers hash the result; the bytes are transient.

const fieldSep = 0x1f

// AppendKey appends the canonical dedup encoding of r to dst.
func (r SongRow) AppendKey(dst []byte) []byte {
	dst = appendStr(dst, r.SongID)
	dst = append(dst, fieldSep)
	dst = appendStr(dst, r.Title)
	dst = append(dst, fieldSep)
	dst = appendStr(dst, r.ArtistID)
	dst = append(dst, fieldSep)
	dst = strconv.AppendInt(dst, int64(r.Year), 10)
	dst = append(dst, fieldSep)
	return appendF64(dst, r.Duration)
}

// AppendKey appends the canonical dedup encoding of r to dst.
func (r ArtistRow) AppendKey(dst []byte) []byte {
	dst = appendStr(dst, r.ArtistID)
	dst = append(dst, fieldSep)
	dst = appendStr(dst, r.Name)
	dst = append(dst, fieldSep)
	dst = appendStrPtr(dst, r.Location)
	dst = append(dst, fieldSep)
	dst = appendF64Ptr(dst, r.Latitude)
	dst = append(dst, fieldSep)
	return appendF64Ptr(dst, r.Longitude)
}

// AppendKey appends the canonical dedup encoding of r to dst.
func (r UserRow) AppendKey(dst []byte) []byte {
	dst = appendStr(dst, r.UserID)
	dst = append(dst, fieldSep)
	dst = appendStrPtr(dst, r.FirstName)
	dst = append(dst, fieldSep)
	dst = appendStrPtr(dst, r.LastName)
	dst = append(dst, fieldSep)
	dst = appendStrPtr(dst, r.Gender)
	dst = append(dst, fieldSep)
	return appendStr(dst, r.Level)
}

// AppendKey appends the canonical dedup encoding of r to dst. The derived
// fields are encoded too: full-row equality is the stated policy, its
// equivalence to timestamp equality is a property of the derivation.
func (r TimeRow) AppendKey(dst []byte) []byte {
	dst = strconv.AppendInt(dst, r.Timestamp, 10)
	dst = append(dst, fieldSep)
	dst = strconv.AppendInt(dst, r.Datetime.UnixMilli(), 10)
	for _, n := range [...]int{r.Hour, r.Day, r.Week, r.Month, r.Year, r.Weekday} {
		dst = append(dst, fieldSep)
		dst = strconv.AppendInt(dst, int64(n), 10)
	}
	return dst
}

func appendStr(dst []byte, s string) []byte {
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, ':')
	return append(dst, s...)
}

func appendF64(dst []byte, f float64) []byte {
	return strconv.AppendFloat(dst, f, 'g', -1, 64)
}

func appendStrPtr(dst []byte, p *string) []byte {
	if p == nil {
		return append(dst, 0x00)
	}
	dst = append(dst, 0x01)
	return appendStr(dst, *p)
}

func appendF64Ptr(dst []byte, p *float64) []byte {
	if p == nil {
		return append(dst, 0x00)
	}
	dst = append(dst, 0x01)
	return appendF64(dst, *p)
}
