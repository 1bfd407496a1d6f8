// Package voter turns the decoded text of a voter-roll document into
// Record values: it locates the document-level header fields, splits the
// body into per-voter entry blocks and pulls each entry's fields out with
// label-anchored rules.
package voter

// Record is one voter as stored. Every string field uses "" for "absent".
type Record struct {
	ID int64 `json:"id"`

	SerialNumber string `json:"serial_number"`
	VoterNumber  string `json:"voter_number"`
	Name         string `json:"name"`
	FatherName   string `json:"father_name"`
	MotherName   string `json:"mother_name"`
	Occupation   string `json:"occupation"`
	DateOfBirth  string `json:"date_of_birth"`
	Address      string `json:"address"`

	Region       string `json:"region"`
	Subregion    string `json:"subregion"`
	Ward         string `json:"ward"`
	AreaCode     string `json:"area_code"`
	AreaName     string `json:"area_name"`
	DistrictName string `json:"district_name"`
	SourcePath   string `json:"source_path"`
}

// Source identifies where a document came from. Region and Subregion are
// the folder labels supplied by corpus discovery, never read from the text.
type Source struct {
	Path      string
	Region    string
	Subregion string
}

// DocumentFields are the header values shared by every record of one document.
type DocumentFields struct {
	DistrictName string
	AreaCode     string
	AreaName     string
	Ward         string
}

// Entry holds the per-voter fields recovered from one entry block.
type Entry struct {
	SerialNumber string
	VoterNumber  string
	Name         string
	FatherName   string
	MotherName   string
	Occupation   string
	DateOfBirth  string
	Address      string
}

// NewRecord assembles a record from its three sources of data.
func NewRecord(src Source, doc DocumentFields, e Entry) *Record {
	return &Record{
		SerialNumber: e.SerialNumber,
		VoterNumber:  e.VoterNumber,
		Name:         e.Name,
		FatherName:   e.FatherName,
		MotherName:   e.MotherName,
		Occupation:   e.Occupation,
		DateOfBirth:  e.DateOfBirth,
		Address:      e.Address,
		Region:       src.Region,
		Subregion:    src.Subregion,
		Ward:         doc.Ward,
		AreaCode:     doc.AreaCode,
		AreaName:     doc.AreaName,
		DistrictName: doc.DistrictName,
		SourcePath:   src.Path,
	}
}

// Columns lists the record fields in storage and export order, excluding ID.
var Columns = []string{
	"serial_number", "voter_number", "name", "father_name", "mother_name",
	"occupation", "date_of_birth", "address", "region", "subregion", "ward",
	"area_code", "area_name", "district_name", "source_path",
}

// Values returns the record's string fields in Columns order.
func (r *Record) Values() []string {
	return []string{
		r.SerialNumber, r.VoterNumber, r.Name, r.FatherName, r.MotherName,
		r.Occupation, r.DateOfBirth, r.Address, r.Region, r.Subregion, r.Ward,
		r.AreaCode, r.AreaName, r.DistrictName, r.SourcePath,
	}
}
