// ABOUTME: Static drug interaction rule table.
// ABOUTME: Groups match by keyword against name, classification path, and category.
package interaction

// Rule flags a risky combination between two keyword groups.
type Rule struct {
	GroupA      []string
	GroupB      []string
	Severity    Severity
	LabelA      string
	LabelB      string
	Description string
	Advice      string
}

// nsaids is shared by several rules.
var nsaids = []string{
	"布洛芬", "ibuprofen", "萘普生", "naproxen", "双氯芬酸", "diclofenac",
	"吲哚美辛", "indomethacin", "抗炎和抗风湿", "非甾体",
}

var minerals = []string{"钙", "钙剂", "铁", "铁剂", "镁", "铝", "碳酸钙", "矿物质补充"}

func join(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Rules is ordered; for each medication pair the first matching rule wins.
var Rules = []Rule{
	{
		GroupA:      []string{"华法林", "warfarin"},
		GroupB:      []string{"阿司匹林", "aspirin", "布洛芬", "ibuprofen", "萘普生", "naproxen", "双氯芬酸", "diclofenac", "抗炎和抗风湿", "非甾体"},
		Severity:    SeverityHigh,
		LabelA:      "Warfarin (anticoagulant)",
		LabelB:      "NSAIDs / aspirin",
		Description: "NSAIDs potentiate warfarin and irritate the gastric mucosa, sharply raising the risk of serious bleeding.",
		Advice:      "Avoid the combination; if unavoidable, monitor INR closely and watch for signs of bleeding.",
	},
	{
		GroupA:      []string{"华法林", "warfarin"},
		GroupB:      []string{"阿奇霉素", "azithromycin", "克拉霉素", "clarithromycin", "甲硝唑", "metronidazole", "氟康唑", "fluconazole", "环丙沙星", "ciprofloxacin"},
		Severity:    SeverityHigh,
		LabelA:      "Warfarin (anticoagulant)",
		LabelB:      "Macrolide, azole, or quinolone anti-infectives",
		Description: "These anti-infectives inhibit warfarin metabolism (CYP2C9), raising INR and the risk of bleeding.",
		Advice:      "Check INR every 2 to 3 days while combined and reduce the warfarin dose if needed.",
	},
	{
		GroupA:      []string{"单胺氧化酶抑制", "司来吉兰", "selegiline", "苯乙肼", "phenelzine", "tranylcypromine"},
		GroupB:      []string{"曲马多", "tramadol", "哌替啶", "pethidine", "芬太尼", "fentanyl", "右美沙芬", "dextromethorphan", "镇痛药"},
		Severity:    SeverityHigh,
		LabelA:      "MAO inhibitors",
		LabelB:      "Opioids / central analgesics",
		Description: "The combination can trigger serotonin syndrome (fever, tremor, confusion), which can be life threatening.",
		Advice:      "Do not combine; wait at least 14 days after stopping an MAOI before using opioids.",
	},
	{
		GroupA:      []string{"单胺氧化酶抑制", "司来吉兰", "selegiline", "苯乙肼", "phenelzine"},
		GroupB:      []string{"氟西汀", "fluoxetine", "帕罗西汀", "paroxetine", "舍曲林", "sertraline", "文拉法辛", "venlafaxine", "度洛西汀", "duloxetine", "西酞普兰", "citalopram", "抗抑郁"},
		Severity:    SeverityHigh,
		LabelA:      "MAO inhibitors",
		LabelB:      "Antidepressants (SSRI/SNRI)",
		Description: "The combination can cause severe serotonin syndrome with fever, myoclonus, and autonomic instability.",
		Advice:      "Never combine; allow a full washout when switching (five weeks for fluoxetine).",
	},
	{
		GroupA:      []string{"氯吡格雷", "clopidogrel", "替格瑞洛", "ticagrelor", "普拉格雷", "prasugrel"},
		GroupB:      []string{"奥美拉唑", "omeprazole", "埃索美拉唑", "esomeprazole", "质子泵", "ppi", "治疗与胃酸分泌相关"},
		Severity:    SeverityModerate,
		LabelA:      "P2Y12 antiplatelets",
		LabelB:      "Proton pump inhibitors (PPI)",
		Description: "Omeprazole and esomeprazole inhibit CYP2C19 and reduce clopidogrel activation, weakening its antiplatelet effect.",
		Advice:      "If a PPI is needed prefer pantoprazole or lansoprazole, which barely inhibit CYP2C19.",
	},
	{
		GroupA:      []string{"地高辛", "digoxin"},
		GroupB:      []string{"阿奇霉素", "azithromycin", "克拉霉素", "clarithromycin", "红霉素", "erythromycin", "胺碘酮", "amiodarone", "维拉帕米", "verapamil", "地尔硫", "diltiazem"},
		Severity:    SeverityHigh,
		LabelA:      "Digoxin",
		LabelB:      "Macrolides / antiarrhythmics",
		Description: "These drugs raise digoxin levels through P-gp inhibition and can cause digoxin toxicity (arrhythmia, nausea).",
		Advice:      "Monitor digoxin levels, reduce the dose when needed, and check the ECG regularly.",
	},
	{
		GroupA:      []string{"锂盐", "碳酸锂", "lithium"},
		GroupB:      nsaids,
		Severity:    SeverityHigh,
		LabelA:      "Lithium",
		LabelB:      "NSAIDs",
		Description: "NSAIDs reduce renal lithium clearance and can push lithium to toxic levels (tremor, confusion, arrhythmia).",
		Advice:      "Avoid the combination; if unavoidable, monitor lithium levels and lower the dose.",
	},
	{
		GroupA:      []string{"甲氨蝶呤", "methotrexate"},
		GroupB:      []string{"布洛芬", "ibuprofen", "萘普生", "naproxen", "双氯芬酸", "diclofenac", "阿司匹林", "aspirin", "抗炎和抗风湿", "非甾体"},
		Severity:    SeverityHigh,
		LabelA:      "Methotrexate",
		LabelB:      "NSAIDs",
		Description: "NSAIDs reduce methotrexate excretion, leading to accumulation and toxicity (marrow suppression, mucositis, liver damage).",
		Advice:      "Avoid NSAIDs during high-dose methotrexate; monitor blood counts and liver function even at low doses.",
	},
	{
		GroupA:      []string{"他汀", "statin", "辛伐他汀", "simvastatin", "阿托伐他汀", "atorvastatin", "洛伐他汀", "lovastatin", "血脂修正药"},
		GroupB:      []string{"克拉霉素", "clarithromycin", "红霉素", "erythromycin", "伊曲康唑", "itraconazole", "酮康唑", "ketoconazole", "氟康唑", "fluconazole", "胺碘酮", "amiodarone", "环孢素", "cyclosporine"},
		Severity:    SeverityModerate,
		LabelA:      "Statins",
		LabelB:      "Strong CYP3A4 inhibitors",
		Description: "CYP3A4 inhibitors raise statin levels and the risk of rhabdomyolysis, which can cause acute kidney failure.",
		Advice:      "Switch to a statin less affected by CYP3A4 (rosuvastatin, pravastatin) or pause the statin.",
	},
	{
		GroupA:      []string{"acei", "血管紧张素转换酶抑制", "卡托普利", "captopril", "依那普利", "enalapril", "赖诺普利", "lisinopril", "培哚普利", "perindopril"},
		GroupB:      []string{"保钾利尿", "螺内酯", "spironolactone", "阿米洛利", "amiloride", "氨苯蝶啶", "triamterene"},
		Severity:    SeverityModerate,
		LabelA:      "ACE inhibitors",
		LabelB:      "Potassium-sparing diuretics",
		Description: "Together they can cause severe hyperkalaemia (arrhythmia, even cardiac arrest), especially with impaired kidney function.",
		Advice:      "Monitor potassium closely; patients with kidney impairment should usually avoid the combination.",
	},
	{
		GroupA:      []string{"acei", "arb", "血管紧张素转换酶抑制", "血管紧张素受体拮抗", "缬沙坦", "valsartan", "厄贝沙坦", "irbesartan", "氯沙坦", "losartan", "坎地沙坦", "candesartan"},
		GroupB:      nsaids,
		Severity:    SeverityModerate,
		LabelA:      "ACE inhibitors / ARBs",
		LabelB:      "NSAIDs",
		Description: "NSAIDs blunt the blood pressure effect and lower kidney filtration, risking acute kidney injury, worst when a diuretic is added.",
		Advice:      "Avoid long-term use together; prefer paracetamol for pain and monitor blood pressure and kidney function.",
	},
	{
		GroupA:      []string{"氟喹诺酮", "左氧氟沙星", "levofloxacin", "环丙沙星", "ciprofloxacin", "莫西沙星", "moxifloxacin", "诺氟沙星", "norfloxacin"},
		GroupB:      join(minerals, []string{"铝碳酸镁", "antacid", "碳酸镁"}),
		Severity:    SeverityModerate,
		LabelA:      "Fluoroquinolone antibiotics",
		LabelB:      "Calcium / iron / magnesium supplements",
		Description: "Di- and trivalent metal ions chelate quinolones, cutting oral absorption by 50 to 90 percent.",
		Advice:      "Take supplements or antacids at least 2 hours before or 6 hours after the quinolone.",
	},
	{
		GroupA:      []string{"四环素", "tetracycline", "多西环素", "doxycycline", "米诺环素", "minocycline"},
		GroupB:      join(minerals, []string{"antacid"}),
		Severity:    SeverityModerate,
		LabelA:      "Tetracycline antibiotics",
		LabelB:      "Calcium / iron / magnesium supplements",
		Description: "Metal ions form insoluble chelates with tetracyclines and sharply reduce absorption.",
		Advice:      "Separate the doses by at least 2 hours.",
	},
	{
		GroupA:      []string{"胺碘酮", "amiodarone"},
		GroupB:      []string{"β受体阻滞", "美托洛尔", "metoprolol", "阿替洛尔", "atenolol", "比索洛尔", "bisoprolol", "普萘洛尔", "propranolol", "维拉帕米", "verapamil", "地尔硫", "diltiazem", "心脏病治疗"},
		Severity:    SeverityModerate,
		LabelA:      "Amiodarone",
		LabelB:      "Beta blockers / non-dihydropyridine CCBs",
		Description: "The combination can worsen sinus bradycardia and AV block as cardiac depression adds up.",
		Advice:      "Use ECG monitoring, avoid rapid IV loading, and watch heart rate and PR interval.",
	},
	{
		GroupA:      []string{"甲氨蝶呤", "methotrexate"},
		GroupB:      []string{"叶酸", "folic acid", "维生素b9", "甲酰四氢叶酸"},
		Severity:    SeverityLow,
		LabelA:      "Methotrexate",
		LabelB:      "Folic acid supplements",
		Description: "Folic acid reduces methotrexate side effects (mouth ulcers, GI upset) but large doses may reduce efficacy.",
		Advice:      "Use the low folic acid dose your doctor prescribed (for example 5 mg weekly); do not increase it yourself.",
	},
	{
		GroupA:      []string{"左甲状腺素", "levothyroxine", "优甲乐", "甲状腺", "thyroid"},
		GroupB:      []string{"钙", "钙剂", "铁", "铁剂", "铝", "碳酸钙", "矿物质补充"},
		Severity:    SeverityModerate,
		LabelA:      "Levothyroxine",
		LabelB:      "Calcium / iron supplements",
		Description: "Calcium and iron bind levothyroxine and lower its absorption by roughly 20 to 40 percent.",
		Advice:      "Take levothyroxine on an empty stomach and keep supplements at least 4 hours apart.",
	},
	{
		GroupA:      []string{"二甲双胍", "metformin", "糖尿病用药", "降糖"},
		GroupB:      []string{"碘造影剂", "碘克沙醇", "碘普罗胺", "iodinated contrast", "造影"},
		Severity:    SeverityModerate,
		LabelA:      "Metformin",
		LabelB:      "Iodinated contrast media",
		Description: "Contrast media can transiently reduce kidney function, delaying metformin clearance and raising the risk of lactic acidosis.",
		Advice:      "Stop metformin 48 hours before the scan and resume only after kidney function is confirmed normal.",
	},
	{
		GroupA:      []string{"磺脲类", "格列本脲", "glibenclamide", "格列美脲", "glimepiride", "格列吡嗪", "glipizide", "格列齐特", "gliclazide"},
		GroupB:      []string{"氟康唑", "fluconazole", "伏立康唑", "voriconazole", "克拉霉素", "clarithromycin", "环丙沙星", "ciprofloxacin"},
		Severity:    SeverityModerate,
		LabelA:      "Sulfonylureas",
		LabelB:      "Azole, macrolide, or quinolone anti-infectives",
		Description: "These drugs inhibit sulfonylurea metabolism and can cause severe hypoglycaemia.",
		Advice:      "Check blood glucose more often and reduce the sulfonylurea dose if needed.",
	},
	{
		GroupA:      []string{"质子泵", "奥美拉唑", "omeprazole", "埃索美拉唑", "esomeprazole", "兰索拉唑", "lansoprazole", "泮托拉唑", "pantoprazole", "治疗与胃酸分泌相关"},
		GroupB:      []string{"铁", "铁剂", "硫酸亚铁", "ferrous sulfate", "琥珀酸亚铁", "富马酸亚铁"},
		Severity:    SeverityLow,
		LabelA:      "Proton pump inhibitors (PPI)",
		LabelB:      "Iron supplements",
		Description: "Less stomach acid impairs dissolution and absorption of non-haem iron.",
		Advice:      "Take iron 30 minutes before the PPI or 2 hours apart; vitamin C helps absorption.",
	},
	{
		GroupA:      []string{"阿司匹林", "aspirin"},
		GroupB:      []string{"布洛芬", "ibuprofen"},
		Severity:    SeverityLow,
		LabelA:      "Aspirin (antiplatelet)",
		LabelB:      "Ibuprofen (NSAID)",
		Description: "Ibuprofen competes with aspirin for COX-1 and can weaken its cardioprotective antiplatelet effect.",
		Advice:      "Take ibuprofen at least 2 hours after aspirin; prefer paracetamol for long-term pain relief.",
	},
	{
		GroupA:      []string{"甲硝唑", "metronidazole", "替硝唑", "tinidazole"},
		GroupB:      []string{"酒精", "alcohol", "乙醇"},
		Severity:    SeverityHigh,
		LabelA:      "Metronidazole / tinidazole",
		LabelB:      "Alcohol",
		Description: "The combination causes a disulfiram-like reaction (flushing, palpitations, headache, vomiting) and in severe cases shock.",
		Advice:      "Do not drink alcohol during treatment and for 48 hours after the last dose.",
	},
}
