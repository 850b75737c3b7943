package service

import (
	"slices"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/entity"
)

var _ output.SerializerRegistry = (*SerializerRegistryImpl)(nil)

type SerializerRegistryImpl struct {
	serializers map[entity.Format]output.SerializerPort
}

func NewSerializerRegistry() *SerializerRegistryImpl {
	return &SerializerRegistryImpl{
		serializers: make(map[entity.Format]output.SerializerPort),
	}
}

func (r *SerializerRegistryImpl) Register(serializer output.SerializerPort) {
	for _, format := range serializer.Formats() {
		r.serializers[format] = serializer
	}
}

func (r *SerializerRegistryImpl) Get(format entity.Format) (output.SerializerPort, bool) {
	serializer, ok := r.serializers[format]
	return serializer, ok
}

func (r *SerializerRegistryImpl) Formats() []entity.Format {
	result := make([]entity.Format, 0, len(r.serializers))
	for format := range r.serializers {
		result = append(result, format)
	}
	slices.Sort(result)
	return result
}
