package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// memberHeaders CSV 表头到字段的映射
var memberHeaders = map[string]string{
	"ID Membru":        "memberCode",
	"Nume":             "lastName",
	"Prenume":          "firstName",
	"Data Nașterii":    "dateOfBirth",
	"CNP":              "cnp",
	"Grad":             "rank",
	"UM":               "unit",
	"Profil Principal": "mainProfile",
	"Status":           "status",
	"An Înscriere":     "branchEnrollmentYear",
	"An Pensionare":    "retirementYear",
	"Proveniență":      "provenance",
	"Telefon":          "phone",
	"Email":            "email",
	"Adresă":           "address",
}

var requiredMemberHeaders = []string{"Nume", "Prenume", "Grad", "UM", "Profil Principal"}

var memberDateLayouts = []string{"02.01.2006", "02/01/2006", "02-01-2006", "2006-01-02", "01/02/2006"}

var phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)

type MemberDraft struct {
	Row                  int    `json:"row"`
	MemberCode           string `json:"memberCode,omitempty"`
	LastName             string `json:"lastName" validate:"required"`
	FirstName            string `json:"firstName" validate:"required"`
	DateOfBirth          string `json:"dateOfBirth,omitempty"`
	CNP                  string `json:"cnp,omitempty" validate:"omitempty,len=13"`
	Rank                 string `json:"rank" validate:"required"`
	Unit                 string `json:"unit" validate:"required"`
	MainProfile          string `json:"mainProfile" validate:"required"`
	Status               string `json:"status,omitempty"`
	BranchEnrollmentYear *int   `json:"branchEnrollmentYear,omitempty"`
	RetirementYear       *int   `json:"retirementYear,omitempty"`
	Provenance           string `json:"provenance,omitempty"`
	Phone                string `json:"phone,omitempty" validate:"omitempty,phone"`
	Email                string `json:"email,omitempty" validate:"omitempty,email"`
	Address              string `json:"address,omitempty"`
}

type MemberImport struct {
	Members []MemberDraft `json:"validMembers"`
	Errors  []RowError    `json:"errors"`
}

var memberValidate = newMemberValidator()

func newMemberValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

var memberFieldMessages = map[string]string{
	"LastName.required":    "Nume lipsă",
	"FirstName.required":   "Prenume lipsă",
	"Rank.required":        "Grad lipsă",
	"Unit.required":        "UM lipsă",
	"MainProfile.required": "Profil Principal lipsă",
	"Email.email":          "Format email invalid",
	"Phone.phone":          "Format telefon invalid",
	"CNP.len":              "CNP trebuie să aibă 13 caractere",
}

// ValidateMember 返回罗语错误信息列表
func ValidateMember(d *MemberDraft) []string {
	err := memberValidate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := memberFieldMessages[fe.StructField()+"."+fe.Tag()]; ok {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s invalid", fe.StructField()))
	}
	return msgs
}

func ParseMemberDate(value string) (string, bool) {
	for _, layout := range memberDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}

// ParseMembers 解析会员 CSV；缺少必填表头时整体失败
func ParseMembers(text string) (*MemberImport, error) {
	records, err := ReadRecords(text, DetectDelimiter(text))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("Fișierul este gol sau nu conține date")
	}

	header := make([]string, len(records[0]))
	present := make(map[string]bool, len(header))
	for i, h := range records[0] {
		header[i] = strings.Trim(strings.TrimSpace(strings.TrimPrefix(h, bom)), `"`)
		present[header[i]] = true
	}
	var missing []string
	for _, h := range requiredMemberHeaders {
		if !present[h] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Câmpuri obligatorii lipsă: %s", strings.Join(missing, ", "))
	}

	res := &MemberImport{Members: []MemberDraft{}, Errors: []RowError{}}
	for i, rec := range records[1:] {
		row := i + 2
		if blankRecord(rec) {
			continue
		}
		d := MemberDraft{Row: row}
		var rowErrs []string

		for idx, h := range header {
			field, ok := memberHeaders[h]
			if !ok {
				continue
			}
			value := cell(rec, idx)
			if value == "" {
				continue
			}
			if msg := assignMemberField(&d, field, h, value); msg != "" {
				rowErrs = append(rowErrs, msg)
			}
		}
		rowErrs = append(rowErrs, ValidateMember(&d)...)

		if len(rowErrs) > 0 {
			res.Errors = append(res.Errors, RowError{Row: row, Message: strings.Join(rowErrs, "; ")})
			continue
		}
		res.Members = append(res.Members, d)
	}
	return res, nil
}

func assignMemberField(d *MemberDraft, field, header, value string) string {
	switch field {
	case "memberCode":
		d.MemberCode = value
	case "lastName":
		d.LastName = value
	case "firstName":
		d.FirstName = value
	case "dateOfBirth":
		date, ok := ParseMemberDate(value)
		if !ok {
			return "Data nașterii invalidă: " + value
		}
		d.DateOfBirth = date
	case "cnp":
		d.CNP = value
	case "rank":
		d.Rank = value
	case "unit":
		d.Unit = value
	case "mainProfile":
		d.MainProfile = value
	case "status":
		d.Status = value
	case "branchEnrollmentYear", "retirementYear":
		year, err := strconv.Atoi(value)
		if err != nil || year < 1900 || year > 2100 {
			return fmt.Sprintf("An invalid pentru %s: %s", header, value)
		}
		if field == "branchEnrollmentYear" {
			d.BranchEnrollmentYear = &year
		} else {
			d.RetirementYear = &year
		}
	case "provenance":
		d.Provenance = value
	case "phone":
		d.Phone = value
	case "email":
		d.Email = value
	case "address":
		d.Address = value
	}
	return ""
}
