// Package domain models FAAM core data recordings: the per-flight netCDF
// files written by the BAe-146 research aircraft's main data-logging system.
//
// # Logging-system generations
//
// Core files span several generations of logging hardware, and each one named
// things differently:
//
//	Legacy (pre-2005 HORACE era):
//	  Variables named by numeric parameter code, e.g. "PARA0515" (time),
//	  "PARA0618" (GIN heading). Quality flags carry a "FLAG" suffix:
//	  "PARA0618FLAG". Codes are mapped through [Translate].
//	Transitional:
//	  Semantic names, upper-case "TIME" variable, date carried in a
//	  "Flight_Date" global attribute ("17-May-17").
//	Modern (DECADES):
//	  "Time" variable with units "seconds since 2017-05-17 00:00:00 +0000",
//	  sub-second dimensions sps01..sps64 for high-rate instruments.
//
// # Time
//
// The time variable holds integer seconds since midnight of the flight date.
// The calendar date itself is found through an ordered list of named
// strategies; the first one that succeeds wins and its name is recorded in
// the DATE_STRATEGY attribute. Absolute sample times are the base date plus
// the truncated per-sample offset.
//
// # Missing values
//
// NaN is replaced by the sentinel [FillValue] (-9999.0) on load so arithmetic
// never silently propagates NaN. Tabular views map the sentinel back to NaN.
// Variables produced by the merge engine are NaN-filled until export.
//
// # Flight phase
//
// WOW_IND (weight on wheels) is 0 when airborne and 1 on the ground. Files
// without the sensor get an inferred indicator from indicated airspeed:
// airborne strictly between 60 and 300 knots.
//
// # Position sources
//
// The GPS-aided inertial navigation unit (GIN) is preferred:
// LAT_GIN/LON_GIN/ALT_GIN. Older files only have LAT_GPS/LON_GPS/GPS_ALT.
package domain
