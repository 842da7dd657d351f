package oui

// baseline is compiled into the binary so lookups work without any data files
var baseline = map[string]string{
	// Ubiquiti
	"002722": "Ubiquiti Networks",
	"FCECDA": "Ubiquiti Inc",
	"B4FBE4": "Ubiquiti Inc",
	"74ACB9": "Ubiquiti Networks",
	"0418D6": "Ubiquiti Networks",
	"DC9FDB": "Ubiquiti Inc",
	"68D79A": "Ubiquiti Networks",
	"802AA8": "Ubiquiti Inc",
	"F09FC2": "Ubiquiti Networks",
	"18E829": "Ubiquiti Networks",
	"44D9E7": "Ubiquiti Networks",
	"687251": "Ubiquiti Networks",
	"24A43C": "Ubiquiti Networks",
	"E063DA": "Ubiquiti Inc",
	"78453C": "Ubiquiti Inc",
	"788A20": "Ubiquiti Inc",
	"D0217C": "Ubiquiti Inc",
	"A42BB0": "Ubiquiti Inc",

	// Network equipment
	"001B44": "D-Link",
	"001EC2": "D-Link",
	"002191": "D-Link",
	"000C42": "Linksys",
	"001310": "Linksys",
	"0015E9": "Linksys",
	"00145E": "TP-Link",
	"0C80DA": "TP-Link",
	"A07A0C": "TP-Link",
	"002686": "Cisco",
	"000D3A": "Cisco",
	"001644": "Cisco Linksys",
	"00055D": "NetGear",
	"001B2F": "NetGear",
	"0009B7": "NetGear",

	// Virtualization
	"005056": "VMware",
	"000C29": "VMware",
	"080027": "Oracle VirtualBox",
	"00155D": "Microsoft Hyper-V",

	// Hosts
	"001CB3": "Apple",
	"00236C": "Apple",
	"3C0754": "Apple",
	"B827EB": "Raspberry Pi Foundation",
	"DCA632": "Raspberry Pi Foundation",
	"E45F01": "Raspberry Pi Trading",
	"001EC0": "Intel Corporate",
	"00215C": "Intel Corporate",
	"0026C7": "Intel Corporate",
}

// Baseline returns a copy of the compiled-in table
func Baseline() map[string]string {
	out := make(map[string]string, len(baseline))
	for k, v := range baseline {
		out[k] = v
	}
	return out
}
