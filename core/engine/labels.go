package engine

import "strconv"

// CategoryLabel returns the long Indonesian display label for a category.
func CategoryLabel(c Category) string {
	switch c {
	case CategoryKTD:
		return "Kejadian Tidak Diharapkan"
	case CategoryKTC:
		return "Kejadian Tidak Cedera"
	case CategoryKNC:
		return "Kejadian Nyaris Cedera"
	case CategoryKPCS:
		return "Kejadian Potensial Cedera Serius"
	case CategorySentinel:
		return "Sentinel Event"
	}
	return string(c)
}

// CanonicalSKPLabels is the full universe of patient safety goal labels.
func CanonicalSKPLabels() []string {
	return []string{"SKP 1", "SKP 2", "SKP 3", "SKP 4", "SKP 5", "SKP 6"}
}

// CanonicalMDPLabels is the full universe of medical discipline labels.
func CanonicalMDPLabels() []string {
	labels := make([]string, 0, 17)
	for i := 1; i <= 17; i++ {
		labels = append(labels, mdpLabel(i))
	}
	return labels
}

func mdpLabel(n int) string {
	return "MDP " + strconv.Itoa(n)
}

// MDPDescription returns the short description shown next to an MDP label.
func MDPDescription(label string) string {
	return mdpDescriptions[label]
}

var mdpDescriptions = map[string]string{
	"MDP 1":  "Melakukan praktik keprofesian tidak kompeten",
	"MDP 2":  "Tidak merujuk pasien kepada tenaga medis kompeten",
	"MDP 3":  "Merujuk ke tenaga kesehatan tidak kompeten",
	"MDP 4":  "Mengabaikan tanggung jawab profesi",
	"MDP 5":  "Menghentikan kehamilan tanpa dasar hukum",
	"MDP 6":  "Penyalahgunaan kewenangan profesi",
	"MDP 7":  "Penyalahgunaan alkohol/obat terlarang",
	"MDP 8":  "Penipuan atau tidak memberi penjelasan memadai",
	"MDP 9":  "Membuka rahasia pasien tanpa pembenaran",
	"MDP 10": "Perbuatan tidak patut/unsur seksual",
	"MDP 11": "Menolak/menghentikan tindakan tanpa alasan",
	"MDP 12": "Pemeriksaan atau pengobatan berlebihan",
	"MDP 13": "Meresepkan obat yang tidak sesuai kebutuhan",
	"MDP 14": "Tidak membuat atau menyimpan rekam medis",
	"MDP 15": "Keterangan medis tanpa pemeriksaan",
	"MDP 16": "Turut serta melakukan penyiksaan/kejam",
	"MDP 17": "Mengiklankan diri/perang tarif",
}
