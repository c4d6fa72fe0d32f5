package schema

// PropertyDTO is the exported shape of a property definition.
type PropertyDTO struct {
	Key          string  `json:"key"`
	DisplayName  string  `json:"displayName"`
	Description  string  `json:"description,omitempty"`
	DataType     string  `json:"dataType"`
	Required     bool    `json:"required"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

// EntityTypeDTO is the exported shape of an entity type.
type EntityTypeDTO struct {
	Key         string        `json:"key"`
	DisplayName string        `json:"displayName"`
	Description string        `json:"description,omitempty"`
	Properties  []PropertyDTO `json:"properties"`
}

// RelationTypeDTO is the exported shape of a relation type.
type RelationTypeDTO struct {
	Key               string        `json:"key"`
	DisplayName       string        `json:"displayName"`
	Description       string        `json:"description,omitempty"`
	FromEntityTypeKey string        `json:"fromEntityTypeKey"`
	ToEntityTypeKey   string        `json:"toEntityTypeKey"`
	Properties        []PropertyDTO `json:"properties"`
}

// OntologyDTO is the exported ontology metadata.
type OntologyDTO struct {
	OntologyID  string `json:"ontologyId"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SchemaResponse is the full schema introspection payload.
type SchemaResponse struct {
	Ontology      OntologyDTO       `json:"ontology"`
	EntityTypes   []EntityTypeDTO   `json:"entityTypes"`
	RelationTypes []RelationTypeDTO `json:"relationTypes"`
}

func propertiesToDTO(props PropertySet) []PropertyDTO {
	out := make([]PropertyDTO, 0, props.Len())
	for _, p := range props.All() {
		out = append(out, PropertyDTO{
			Key:          p.Key,
			DisplayName:  p.DisplayName,
			Description:  p.Description,
			DataType:     string(p.DataType),
			Required:     p.Required,
			DefaultValue: p.DefaultValue,
		})
	}
	return out
}

// SnapshotToResponse converts a compiled snapshot into the export payload.
func SnapshotToResponse(snap *Snapshot) SchemaResponse {
	resp := SchemaResponse{
		Ontology: OntologyDTO{
			OntologyID:  snap.OntologyID,
			Key:         snap.OntologyKey,
			Name:        snap.OntologyName,
			Description: snap.OntologyDescription,
		},
		EntityTypes:   make([]EntityTypeDTO, 0, len(snap.entityOrder)),
		RelationTypes: make([]RelationTypeDTO, 0, len(snap.relationOrder)),
	}
	for _, et := range snap.EntityTypes() {
		resp.EntityTypes = append(resp.EntityTypes, EntityTypeDTO{
			Key:         et.Key,
			DisplayName: et.DisplayName,
			Description: et.Description,
			Properties:  propertiesToDTO(et.Properties),
		})
	}
	for _, rt := range snap.RelationTypes() {
		resp.RelationTypes = append(resp.RelationTypes, RelationTypeDTO{
			Key:               rt.Key,
			DisplayName:       rt.DisplayName,
			Description:       rt.Description,
			FromEntityTypeKey: rt.FromEntityTypeKey,
			ToEntityTypeKey:   rt.ToEntityTypeKey,
			Properties:        propertiesToDTO(rt.Properties),
		})
	}
	return resp
}
