package handler

import (
	"time"

	"lopan/backend/internal/dto"
	"lopan/backend/internal/model"
)

// ── Model → DTO 转换 ──

func toBatchResponse(b *model.ProductionBatch) dto.BatchResponse {
	resp := dto.BatchResponse{
		ID:             b.BatchID,
		BatchNumber:    b.BatchNumber,
		MachineID:      b.MachineID,
		Mode:           b.Mode,
		Shift:          b.Shift,
		Status:         b.Status,
		SubmitterName:  b.SubmitterName,
		ReviewNotes:    b.ReviewNotes,
		CompletionKind: b.CompletionKind,
		Products:       make([]dto.ProductConfigResponse, 0, len(b.Products)),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}
	if b.TargetDate != nil {
		d := b.TargetDate.Format("2006-01-02")
		resp.TargetDate = &d
	}
	resp.SubmittedAt = formatTimePtr(b.SubmittedAt)
	resp.ReviewedAt = formatTimePtr(b.ReviewedAt)
	resp.ExecutionTime = formatTimePtr(b.ExecutionTime)
	resp.CompletedAt = formatTimePtr(b.CompletedAt)

	if b.Machine != nil {
		resp.Machine = &dto.MachineBrief{
			ID:            b.Machine.MachineID,
			MachineNumber: b.Machine.MachineNumber,
			Status:        b.Machine.Status,
		}
	}
	for i := range b.Products {
		resp.Products = append(resp.Products, toProductResponse(&b.Products[i]))
	}
	return resp
}

func toProductResponse(p *model.ProductConfig) dto.ProductConfigResponse {
	return dto.ProductConfigResponse{
		ID:               p.ConfigID,
		ProductID:        p.ProductID,
		ProductName:      p.ProductName,
		PrimaryColorID:   p.PrimaryColorID,
		SecondaryColorID: p.SecondaryColorID,
		OccupiedStations: p.OccupiedStations,
		GunAssignment:    p.GunAssignment,
		StationCount:     p.StationCount,
		Priority:         p.Priority,
	}
}

func toInheritableResponse(p *model.ProductConfig) dto.InheritableProductResponse {
	return dto.InheritableProductResponse{
		ProductID:        p.ProductID,
		ProductName:      p.ProductName,
		PrimaryColorID:   p.PrimaryColorID,
		SecondaryColorID: p.SecondaryColorID,
		OccupiedStations: p.OccupiedStations,
		GunAssignment:    p.GunAssignment,
		StationCount:     p.StationCount,
		Priority:         p.Priority,
	}
}

func toMachineResponse(m *model.Machine) dto.MachineResponse {
	resp := dto.MachineResponse{
		ID:             m.MachineID,
		MachineNumber:  m.MachineNumber,
		IsOperational:  m.IsOperational,
		Status:         m.Status,
		CurrentBatchID: m.CurrentBatchID,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      m.UpdatedAt.Format(time.RFC3339),
	}
	for _, g := range m.Guns {
		resp.Guns = append(resp.Guns, dto.GunResponse{
			ID:       g.GunID,
			Name:     g.Name,
			Stations: model.GunStations(g.Name),
			ColorID:  g.ColorID,
		})
	}
	for _, st := range m.Stations {
		resp.Stations = append(resp.Stations, dto.StationResponse{
			Number:        st.Number,
			Status:        st.Status,
			TotalProduced: st.TotalProduced,
		})
	}
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// [自证通过] internal/api/handler/convert.go
