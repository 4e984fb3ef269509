package testutil

// LPJmLTree returns a small LPJmL template tree shaped like the real
// experiment configurations: a run file selecting one of several RUN_ID
// variants, a shared header of enumeration macros, a PFT parameter table
// and one input manifest per climate dataset.
//
// Known variants: RUN_ID_01 (historical spin-up), RUN_ID_11 (HadGEM
// 2080-2099, limited irrigation) and RUN_ID_12 (same with potential
// irrigation). FROM_RESTART switches to the transient phase with outputs;
// DAILY_OUTPUT adds a second "firec" output, reproducing the duplicate id
// defect found in hand-edited files.
func LPJmLTree() map[string]string {
	return map[string]string{
		"lpjml.cjson":           lpjmlRun,
		"include/conf.h":        lpjmlConf,
		"par/param.cjson":       lpjmlParam,
		"input/input_cru.cjson": lpjmlInputCRU,
		"input/input_had.cjson": lpjmlInputHad,
	}
}

const lpjmlConf = `/* enumerations shared by all run configurations */
#define LPJML "lpjml"
#define FIRE "fire"
#define NO_IRRIGATION "no"
#define LIM_IRRIGATION "lim"
#define POT_IRRIGATION "pot"
#define ALL "all"

#define TIM_1901_2005 1
#define TIM_2080_2099 3
#define CLM_CRU 1
#define CLM_HAD 2

#define xstr(s) #s
#define mkstr(s) xstr(s) /* puts argument in quotes */
`

const lpjmlRun = `/*********************************************************/
/* LPJmL configuration file for the irrigation experiment */
/*********************************************************/

#include "include/conf.h"

#if defined(RUN_ID_01)
#define DTIM TIM_1901_2005
#define DCLM CLM_CRU
#define DIRRIG NO_IRRIGATION
#elif defined(RUN_ID_11)
#define DTIM TIM_2080_2099
#define DCLM CLM_HAD
#define DIRRIG LIM_IRRIGATION
#elif defined(RUN_ID_12)
#define DTIM TIM_2080_2099
#define DCLM CLM_HAD
#define DIRRIG POT_IRRIGATION
#endif

#if (DTIM==TIM_2080_2099)
#define FIRSTYEAR 2080
#define LASTYEAR 2099
#else
#define FIRSTYEAR 1901
#define LASTYEAR 2005
#endif

#define OUTPUT output

{
  "sim_name" : "LPJmL irrigation experiment", // shown in the log
  "sim_id"   : LPJML,
  "version"  : "5.3",
  "random_prec" : true,
  "fire" : FIRE,
  "irrigation" : DIRRIG,
#if (DTIM==TIM_2080_2099)
  "river_routing" : true,
#else
  "river_routing" : false,
#endif
  "with_nitrogen" : "lim",
#include "par/param.cjson"
  "input" : {
#if (DCLM==CLM_HAD)
#include "input/input_had.cjson"
#else
#include "input/input_cru.cjson"
#endif
  },
#ifdef FROM_RESTART
  "output" : [
    { "id" : "vegc", "file" : { "fmt" : "raw", "name" : mkstr(OUTPUT/vegc.bin) }},
#ifdef DAILY_OUTPUT
    { "id" : "firec", "file" : { "fmt" : "raw", "name" : mkstr(OUTPUT/firec_daily.bin) }},
#endif
    { "id" : "firec", "file" : { "fmt" : "raw", "name" : mkstr(OUTPUT/firec.bin) }}
  ],
#else
  "output" : [],
#endif
  "startgrid" : ALL,
  "endgrid" : ALL,
#ifndef FROM_RESTART
  "nspinup" : 5000,
  "firstyear" : 1901, "lastyear" : 1901,
  "restart" : false,
  "write_restart" : true,
  "write_restart_filename" : "restart/restart_1901.lpj",
  "restart_year" : 1901
#else
  "nspinup" : 0,
  "firstyear" : FIRSTYEAR, "lastyear" : LASTYEAR,
  "restart" : true,
  "restart_filename" : "restart/restart_1901.lpj",
  "write_restart" : false
#endif
}
`

const lpjmlParam = `#define LMRO_RATIO 1.0 /* shared by all woody PFTs */
  "pftpar" : [
    {
      "id" : 0,
      "name" : "tropical broadleaved evergreen tree",
      "type" : "tree",
      "sla" : 0.0138,
      "longevity" : 1.6,
      "lmro_ratio" : LMRO_RATIO,
      "turnover" : { "leaf" : 2.0, "sapwood" : 20.0, "root" : 2.0 },
      "tmin" : { "slope" : 1.01, "base" : 8.30, "tau" : 0.20 }
    },
    {
      "id" : 1,
      "name" : "temperate broadleaved summergreen tree",
      "type" : "tree",
      "sla" : 0.0250,
      "longevity" : 0.5,
      "lmro_ratio" : LMRO_RATIO,
      "turnover" : { "leaf" : 1.0, "sapwood" : 20.0, "root" : 1.0 },
      "tmin" : { "slope" : 0.24, "base" : 7.66, "tau" : 0.09 }
    },
    {
      "id" : 2,
      "name" : "temperate cereals",
      "type" : "crop",
      "sla" : 0.0300,
      "longevity" : 0.25,
      "turnover" : { "leaf" : 1.0, "root" : 1.0 }
    }
  ],
`

const lpjmlInputCRU = `    "soil" : { "fmt" : "meta", "name" : "/p/projects/lpjml/input/historical/input_VERSION2/soil_new_67420.bin.json"},
    "temp" : { "fmt" : "clm", "name" : "/p/projects/lpjml/input/historical/CRU4/cru_ts4_tmp.clm"},
    "prec" : { "fmt" : "clm", "name" : "/p/projects/lpjml/input/historical/CRU4/cru_ts4_pre.clm"},
    "landuse" : { "fmt" : "clm", "name" : "/p/projects/lpjml/input/historical/input_VERSION2/cft1700_2005_irrigation_systems_64bands.clm"}
`

const lpjmlInputHad = `    "soil" : { "fmt" : "meta", "name" : "/p/projects/lpjml/input/historical/input_VERSION2/soil_new_67420.bin.json"},
    "temp" : { "fmt" : "clm2", "name" : "/p/projects/lpjml/input/scenarios/HadGEM2-ES/tas_rcp85_2006-2099.clm"},
    "prec" : { "fmt" : "clm2", "name" : "/p/projects/lpjml/input/scenarios/HadGEM2-ES/pr_rcp85_2006-2099.clm"},
    "landuse" : { "fmt" : "clm", "name" : "/p/projects/lpjml/input/scenarios/landuse_2005_constant.clm"}
`

// LPJmLMatrix is a matrix file for LPJmLTree, placed next to the template.
const LPJmLMatrix = `template     = "lpjml.cjson"
include_dirs = ["include"]
defines      = ["FROM_RESTART"]

pft_rule "tmin.base" {
  required = false
  max      = 40
}

run "RUN_ID_01" {
  expect "irrigation" {
    equals = "no"
  }
  expect "output" {
    length = 2
  }
}

run "RUN_ID_11" {
  expect "irrigation" {
    equals = "lim"
  }
  expect "river_routing" {
    equals = true
  }
  expect "firstyear" {
    equals = 2080
  }
  expect "output[0].file" {
    equals = { fmt = "raw", name = "output/vegc.bin" }
  }
}

run "RUN_ID_12" {
  expect "irrigation" {
    equals = "pot"
  }
  expect "restart_filename" {
    present = true
  }
}
`
