package output

import "insight-exporter/internal/domain/entity"

// SerializerPort turns an export document into one or more artifacts. A
// serializer announces the formats it serves; registration is keyed off
// that, so a format alias is just a serializer listing it twice.
type SerializerPort interface {
	Formats() []entity.Format
	ContentType() string
	FileExtension() string
	Serialize(doc entity.ExportDocument) ([]entity.Artifact, error)
}

type SerializerRegistry interface {
	Register(serializer SerializerPort)
	Get(format entity.Format) (SerializerPort, bool)
	Formats() []entity.Format
}
