// Package mapper converts domain models to the DTOs served by the HTTP
// layer.
package mapper

import (
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ToGroupDTOs converts the custom groups assigned to an order.
func ToGroupDTOs(groups []domain.CustomGroup) []domain.GroupDTO {
	if len(groups) == 0 {
		return nil
	}
	dtos := make([]domain.GroupDTO, 0, len(groups))
	for _, g := range groups {
		dtos = append(dtos, domain.GroupDTO{
			Name:  g.Name,
			Color: g.Color,
		})
	}
	return dtos
}

// ToOrderView converts a cached order to one list row.
func ToOrderView(row domain.CachedOrder) domain.OrderViewDTO {
	dto := domain.OrderViewDTO{
		ID:             row.Order.ID,
		CustomerName:   row.Order.Client.Name,
		CustomerPhone:  row.Order.Client.Phone,
		CustomerEmail:  row.Order.Client.Email,
		Status:         row.Order.Status,
		PendingWrite:   row.PendingWrite,
		SubmittedAt:    row.Order.SubmittedAt.UTC().Format(timeFormat),
		ModifiedAt:     row.Order.ModifiedAt.UTC().Format(timeFormat),
		Groups:         ToGroupDTOs(row.Order.Groups),
		SelectionLevel: row.Annotation.SelectionLevel,
	}
	if row.Annotation.ChangedAt != nil {
		dto.SelectionChangedAt = row.Annotation.ChangedAt.UTC().Format(timeFormat)
	}
	return dto
}

// ToOrderViews converts a projected slice of cached orders.
func ToOrderViews(rows []domain.CachedOrder) []domain.OrderViewDTO {
	dtos := make([]domain.OrderViewDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ToOrderView(row))
	}
	return dtos
}

// ToOrderDetail converts a fully joined order and its annotation.
func ToOrderDetail(order *domain.Order, ann domain.Annotation) domain.OrderDetailDTO {
	dto := domain.OrderDetailDTO{
		ID:              order.ID,
		CustomerName:    order.Client.Name,
		CustomerPhone:   order.Client.Phone,
		CustomerEmail:   order.Client.Email,
		LandAddress:     order.LandAddress,
		LandArea:        order.LandArea,
		BasementArea:    order.BasementArea,
		GroundFloorArea: order.GroundFloorArea,
		Floor1Area:      order.Floor1Area,
		Floor2Area:      order.Floor2Area,
		RoofArea:        order.RoofArea,
		ProjectType:     order.ProjectType,
		Details:         order.Details,
		Offers:          order.Offers,
		Status:          order.Status,
		SubmittedAt:     order.SubmittedAt.UTC().Format(timeFormat),
		ModifiedAt:      order.ModifiedAt.UTC().Format(timeFormat),
		Groups:          ToGroupDTOs(order.Groups),
		SelectionLevel:  ann.SelectionLevel,
	}
	if ann.ChangedAt != nil {
		dto.SelectionChangedAt = ann.ChangedAt.UTC().Format(timeFormat)
	}
	if order.Project != nil {
		dto.Project = &domain.ProjectDTO{
			Name:   order.Project.Name,
			Number: order.Project.Number,
			Status: order.Project.Status,
		}
	}
	return dto
}

// ToStatusDTO joins a vocabulary value with its configured display style.
func ToStatusDTO(value string, styles *config.StatusesConfig) domain.StatusDTO {
	style := styles.StyleFor(value)
	return domain.StatusDTO{
		Value:      value,
		Label:      style.Label,
		Color:      style.Color,
		LightColor: style.LightColor,
	}
}

// ToAnnotationDTO converts the result of a selection-level change.
func ToAnnotationDTO(orderID int64, ann domain.Annotation) domain.AnnotationDTO {
	dto := domain.AnnotationDTO{
		OrderID:        orderID,
		SelectionLevel: ann.SelectionLevel,
	}
	if ann.ChangedAt != nil {
		dto.ChangedAt = ann.ChangedAt.UTC().Format(timeFormat)
	}
	return dto
}
