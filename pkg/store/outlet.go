package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// OutletRecord is one pharmacy row as published by the locator feed. Field
// names follow the feed verbatim; the core only filters and slices records.
type OutletRecord struct {
	Date        string `json:"fecha,omitempty"`
	LocalID     string `json:"local_id,omitempty"`
	Name        string `json:"local_nombre"`
	Address     string `json:"local_direccion"`
	Phone       string `json:"local_telefono,omitempty"`
	OpeningHour string `json:"funcionamiento_hora_apertura,omitempty"`
	ClosingHour string `json:"funcionamiento_hora_cierre,omitempty"`
	DayOfWeek   string `json:"funcionamiento_dia,omitempty"`
	Locality    string `json:"comuna_nombre"`
	SubLocality string `json:"localidad_nombre,omitempty"`
	RegionID    string `json:"fk_region,omitempty"`
	LocalityID  string `json:"fk_comuna,omitempty"`
	SubLocalID  string `json:"fk_localidad,omitempty"`
	Latitude    string `json:"local_lat,omitempty"`
	Longitude   string `json:"local_lng,omitempty"`
}

// OutletFromMap converts a loosely typed feed row. Numbers and nulls are
// rendered as strings so filters can compare them uniformly.
func OutletFromMap(row map[string]any) OutletRecord {
	get := func(key string) string {
		v, ok := row[key]
		if !ok || v == nil {
			return ""
		}
		switch t := v.(type) {
		case string:
			return t
		case json.Number:
			return t.String()
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return fmt.Sprint(t)
		}
	}
	return OutletRecord{
		Date:        get("fecha"),
		LocalID:     get("local_id"),
		Name:        get("local_nombre"),
		Address:     get("local_direccion"),
		Phone:       get("local_telefono"),
		OpeningHour: get("funcionamiento_hora_apertura"),
		ClosingHour: get("funcionamiento_hora_cierre"),
		DayOfWeek:   get("funcionamiento_dia"),
		Locality:    get("comuna_nombre"),
		SubLocality: get("localidad_nombre"),
		RegionID:    get("fk_region"),
		LocalityID:  get("fk_comuna"),
		SubLocalID:  get("fk_localidad"),
		Latitude:    get("local_lat"),
		Longitude:   get("local_lng"),
	}
}
