package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const flagSuffix = "FLAG"

// legacyCodeRe matches legacy parameter identifiers such as "PARA0618" and
// their quality-flag variants "PARA0618FLAG".
var legacyCodeRe = regexp.MustCompile(`^PARA(\d{4})(FLAG)?$`)

// parameterNames maps legacy numeric parameter codes to semantic names.
// It is built once and never modified.
var parameterNames = map[int]string{
	515: "Time",
	516: "IAS_RVSM",
	517: "TAS_RVSM",
	520: "TAT_DI_R",
	525: "TAT_ND_R",
	529: "TDEW_GE",
	535: "LWC_JW_U",
	562: "CPC_CONC",
	574: "O3_TECO",
	576: "PS_RVSM",
	577: "Q_RVSM",
	578: "PALT_RVS",
	580: "LAT_GPS",
	581: "LON_GPS",
	582: "GPS_ALT",
	610: "LAT_GIN",
	611: "LON_GIN",
	612: "ALT_GIN",
	613: "VELN_GIN",
	614: "VELE_GIN",
	615: "VELD_GIN",
	616: "ROLL_GIN",
	617: "PTCH_GIN",
	618: "HDG_GIN",
	619: "TRCK_GIN",
	620: "GSPD_GIN",
	621: "ROLR_GIN",
	622: "PITR_GIN",
	623: "HDGR_GIN",
	624: "ACLF_GIN",
	625: "ACLS_GIN",
	626: "ACLD_GIN",
	642: "SOL_AZIM",
	643: "SOL_ZEN",
	660: "CAB_PRES",
	661: "CAB_TEMP",
	723: "WOW_IND",
	760: "NV_LWC_U",
	770: "NV_TWC_U",
}

// IsLegacyCode reports whether name has the PARAdddd[FLAG] shape.
func IsLegacyCode(name string) bool {
	return legacyCodeRe.MatchString(name)
}

// Translate returns the semantic name for a legacy parameter code, e.g.
// "PARA0618" -> "HDG_GIN" and "PARA0618FLAG" -> "HDG_GIN_FLAG".
func Translate(code string) (string, error) {
	m := legacyCodeRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownParameterCode, code)
	}

	num, _ := strconv.Atoi(m[1])
	name, ok := parameterNames[num]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownParameterCode, code)
	}
	if m[2] == flagSuffix {
		return name + "_" + flagSuffix, nil
	}
	return name, nil
}
