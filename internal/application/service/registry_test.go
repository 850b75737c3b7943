package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-exporter/internal/domain/entity"
)

type stubSerializer struct {
	formats []entity.Format
}

func (s stubSerializer) Formats() []entity.Format { return s.formats }
func (s stubSerializer) ContentType() string      { return "text/plain" }
func (s stubSerializer) FileExtension() string    { return "txt" }
func (s stubSerializer) Serialize(entity.ExportDocument) ([]entity.Artifact, error) {
	return nil, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewSerializerRegistry()
	tabular := stubSerializer{formats: []entity.Format{entity.FormatCSV, entity.FormatExcel}}
	registry.Register(tabular)
	registry.Register(stubSerializer{formats: []entity.Format{entity.FormatPDF}})

	got, ok := registry.Get(entity.FormatExcel)
	require.True(t, ok, "every declared format resolves")
	assert.Equal(t, tabular, got)

	_, ok = registry.Get(entity.FormatPDF)
	assert.True(t, ok)
}

func TestRegistryGetUnknown(t *testing.T) {
	registry := NewSerializerRegistry()
	registry.Register(stubSerializer{formats: []entity.Format{entity.FormatCSV}})

	_, ok := registry.Get("xml")
	assert.False(t, ok)
}

func TestRegistryFormatsSorted(t *testing.T) {
	registry := NewSerializerRegistry()
	registry.Register(stubSerializer{formats: []entity.Format{entity.FormatPDF}})
	registry.Register(stubSerializer{formats: []entity.Format{entity.FormatExcel, entity.FormatCSV}})

	assert.Equal(t, []entity.Format{entity.FormatCSV, entity.FormatExcel, entity.FormatPDF}, registry.Formats())
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	registry := NewSerializerRegistry()
	first := stubSerializer{formats: []entity.Format{entity.FormatCSV}}
	second := stubSerializer{formats: []entity.Format{entity.FormatCSV, entity.FormatExcel}}
	registry.Register(first)
	registry.Register(second)

	got, ok := registry.Get(entity.FormatCSV)
	require.True(t, ok)
	assert.Equal(t, second, got)
}
