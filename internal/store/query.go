package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/voter-roll-reader/internal/normalize"
	"github.com/a3tai/voter-roll-reader/internal/voter"
)

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Query selects records. Empty filters are ignored. Text is matched as a
// substring of name, voter number, father, mother, address and area code;
// its Bangla digits are normalized before matching the numeric columns.
type Query struct {
	Text        string `json:"q,omitempty"`
	Region      string `json:"region,omitempty"`
	Subregion   string `json:"subregion,omitempty"`
	Ward        string `json:"ward,omitempty"`
	AreaCode    string `json:"area_code,omitempty"`
	DateOfBirth string `json:"dob,omitempty"`
	Page        int    `json:"page,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// Normalized clamps paging to sane values: page >= 1, 1 <= limit <= MaxLimit.
func (q Query) Normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Text = strings.TrimSpace(q.Text)
	return q
}

// Offset is the number of rows skipped for q's page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of search results.
type Page struct {
	Records []voter.Record `json:"data"`
	Total   int64          `json:"total"`
	Number  int            `json:"page"`
	Limit   int            `json:"limit"`
}

// dialect captures the SQL differences between the backends.
type dialect struct {
	placeholder func(n int) string
	like        string
	createTable string
}

// columns are the stored column names, in voter.Columns order.
var columns = []string{
	"serial_no", "voter_no", "name", "father", "mother",
	"occupation", "dob", "address", "upazila", "union_name", "ward",
	"area_code", "area_name", "district", "file_path",
}

const selectColumns = "id, serial_no, voter_no, name, father, mother, occupation, dob, address, upazila, union_name, ward, area_code, area_name, district, file_path"

func columnDefs() string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c + " TEXT NOT NULL DEFAULT ''"
	}
	return strings.Join(defs, ",\n\t")
}

func (d dialect) insertSQL() string {
	ph := make([]string, len(columns))
	for i := range columns {
		ph[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO voters (%s) VALUES (%s)",
		strings.Join(columns, ", "), strings.Join(ph, ", "))
}

func recordArgs(rec *voter.Record) []any {
	values := rec.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// where builds the WHERE clause and its arguments for q.
func (d dialect) where(q Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return d.placeholder(len(args))
	}

	if q.Text != "" {
		orig := "%" + q.Text + "%"
		norm := "%" + normalize.Digits(q.Text) + "%"
		conds = append(conds, fmt.Sprintf(
			"(name %[1]s %[2]s OR voter_no %[1]s %[3]s OR father %[1]s %[4]s OR mother %[1]s %[5]s OR address %[1]s %[6]s OR area_code %[1]s %[7]s)",
			d.like, next(orig), next(norm), next(orig), next(orig), next(orig), next(norm)))
	}
	for _, f := range []struct{ col, val string }{
		{"dob", q.DateOfBirth},
		{"upazila", q.Region},
		{"union_name", q.Subregion},
		{"ward", q.Ward},
		{"area_code", q.AreaCode},
	} {
		if f.val != "" {
			conds = append(conds, f.col+" = "+next(f.val))
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// searchSQL returns the count and page statements for q, which must be normalized.
func (d dialect) searchSQL(q Query) (countSQL, pageSQL string, countArgs, pageArgs []any) {
	where, args := d.where(q)
	countSQL = "SELECT COUNT(*) FROM voters" + where

	pageArgs = append(append([]any{}, args...), q.Limit, q.Offset())
	pageSQL = fmt.Sprintf("SELECT %s FROM voters%s ORDER BY id ASC LIMIT %s OFFSET %s",
		selectColumns, where, d.placeholder(len(args)+1), d.placeholder(len(args)+2))
	return countSQL, pageSQL, args, pageArgs
}

func scanRecord(scan func(dest ...any) error) (voter.Record, error) {
	var r voter.Record
	err := scan(&r.ID, &r.SerialNumber, &r.VoterNumber, &r.Name, &r.FatherName, &r.MotherName,
		&r.Occupation, &r.DateOfBirth, &r.Address, &r.Region, &r.Subregion, &r.Ward,
		&r.AreaCode, &r.AreaName, &r.DistrictName, &r.SourcePath)
	return r, err
}

const filterSQL = "SELECT DISTINCT upazila, union_name, ward, area_code, area_name FROM voters"

// Area is one area code and its name.
type Area struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// WardFilter lists the areas recorded under one ward.
type WardFilter struct {
	Ward  string `json:"ward"`
	Areas []Area `json:"areas"`
}

// SubregionFilter lists the wards recorded under one subregion.
type SubregionFilter struct {
	Name  string       `json:"name"`
	Wards []WardFilter `json:"wards"`
}

// RegionFilter lists the subregions recorded under one region.
type RegionFilter struct {
	Name       string            `json:"name"`
	Subregions []SubregionFilter `json:"subregions"`
}

type filterRow struct {
	Region, Subregion, Ward, AreaCode, AreaName string
}

// Labels used in the filter tree for blank values.
const (
	UnknownRegion = "Unknown"
	General       = "General"
)

// buildFilters nests distinct rows into region > subregion > ward > area,
// ordered by name with wards compared numerically. An area code is listed
// once per ward.
func buildFilters(rows []filterRow) []RegionFilter {
	for i := range rows {
		if rows[i].Region == "" {
			rows[i].Region = UnknownRegion
		}
		if rows[i].Subregion == "" {
			rows[i].Subregion = General
		}
		if rows[i].Ward == "" {
			rows[i].Ward = General
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Subregion != b.Subregion {
			return a.Subregion < b.Subregion
		}
		if wa, wb := wardNumber(a.Ward), wardNumber(b.Ward); wa != wb {
			return wa < wb
		}
		if a.Ward != b.Ward {
			return a.Ward < b.Ward
		}
		return a.AreaCode < b.AreaCode
	})

	var out []RegionFilter
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].Name != r.Region {
			out = append(out, RegionFilter{Name: r.Region})
		}
		region := &out[len(out)-1]

		if n := len(region.Subregions); n == 0 || region.Subregions[n-1].Name != r.Subregion {
			region.Subregions = append(region.Subregions, SubregionFilter{Name: r.Subregion})
		}
		sub := &region.Subregions[len(region.Subregions)-1]

		if n := len(sub.Wards); n == 0 || sub.Wards[n-1].Ward != r.Ward {
			sub.Wards = append(sub.Wards, WardFilter{Ward: r.Ward})
		}
		ward := &sub.Wards[len(sub.Wards)-1]

		if n := len(ward.Areas); n > 0 && ward.Areas[n-1].Code == r.AreaCode {
			continue
		}
		ward.Areas = append(ward.Areas, Area{Code: r.AreaCode, Name: r.AreaName})
	}
	return out
}

// wardNumber orders wards like SQLite's CAST(ward AS INTEGER): leading
// digits count, anything else is 0.
func wardNumber(ward string) int {
	end := 0
	for end < len(ward) && ward[end] >= '0' && ward[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(ward[:end])
	if err != nil {
		return 0
	}
	return n
}
