package exporter

const (
	TemplateParticipants  = "participants"
	TemplateActivities    = "activities"
	TemplateGroupMembers  = "group-members"
	TemplateActivityTypes = "activity-types"
)

const participantsTemplate = "cod_membru,nume,rol,observatii\r\n" +
	"01001,Popescu Ion,Participant,\r\n" +
	"01002,Ionescu Maria,Organizator,Responsabil logistică\r\n" +
	",Georgescu Vasile,Participant,Poate fi identificat doar după nume"

var templates = map[string]string{
	TemplateParticipants:  participantsTemplate,
	TemplateActivities:    "type,title,date,location\nSport,Fotbal în parc,15.01.2025,Parcul Central\nTeatru,Hamlet,20.02.2025,Teatrul Național",
	TemplateGroupMembers:  "member_id,notes\n01001,Optional note",
	TemplateActivityTypes: "id,name,category,isActive\n1,Sport,Fizic,Da\n2,Teatru,Cultural,Da",
}

// Template 返回导入模板（带 BOM），未知类型 ok=false
func Template(kind string) ([]byte, bool) {
	body, ok := templates[kind]
	if !ok {
		return nil, false
	}
	return []byte(bom + body), true
}
