package template

var builtinRecords = []Record{
	{
		ID:          1,
		Name:        "urgent-complaint",
		Language:    "en",
		ContentType: Plain,
		Subject:     "URGENT: Critical {primary_issue} - {area_name} (Ref: {reference_number})",
		Body: `Dear Government Officials,

I am writing to bring to your immediate attention a critical infrastructure failure that is severely impacting the daily lives of {affected_population} in the {area_name} of {city}.

EMERGENCY SITUATION:
The road conditions in our area have deteriorated to such an extent that they now pose serious safety risks to motorists, pedestrians, and emergency vehicles. This situation constitutes a violation of citizens' fundamental rights under {constitutional_articles} of the Constitution of {country}.

CURRENT CONDITIONS:
{specific_problems_list}

IMMEDIATE ACTION REQUIRED:
1. Emergency road inspection by qualified engineers
2. Temporary repairs to prevent further accidents
3. Comprehensive road reconstruction plan
4. Installation of proper drainage system
5. Street lighting restoration

LEGAL FRAMEWORK:
This complaint is filed under:
{constitutional_articles_list}
{relevant_laws_list}

ESCALATION TIMELINE:
If no action is taken within 7 days, this matter will be escalated to:
{escalation_path_list}

CONTACT INFORMATION:
Reference Number: {reference_number}
Date: {date}
Time: {time}
Location: {area_name}, {city}, {province}
Coordinates: {coordinates}
Duration: {duration}

We expect immediate acknowledgment and an action plan within 24 hours.

Sincerely,
Concerned Citizens of {area_name}
{city}, {country}

---
This is an automated complaint system for legitimate civic engagement.
Reference: {reference_number}`,
	},
	{
		ID:          2,
		Name:        "urgent-complaint-urdu",
		Language:    "ur",
		ContentType: Plain,
		Subject:     "فوری: {area_name} میں {primary_issue} (Ref: {reference_number})",
		Body: `محترم حکومتی عہدیداران،

میں آپ کی توجہ فوری طور پر {area_name} {city} میں موجودہ {primary_issue} کی طرف مبذول کروانا چاہتا ہوں جو {affected_population} کی روزمرہ زندگی کو شدید متاثر کر رہی ہے۔

ہنگامی صورتحال:
ہمارے علاقے میں سڑک کی حالت اتنی خراب ہو گئی ہے کہ یہ موٹرسائیکل سواروں، پیدل چلنے والوں اور ہنگامی گاڑیوں کے لیے سنگین خطرات کا باعث بن رہی ہے۔ یہ صورتحال {country} کے آئین کے {constitutional_articles} کی خلاف ورزی ہے۔

موجودہ حالات:
{specific_problems_list}

فوری کارروائی مطلوب:
1. ماہر انجینئرز کی طرف سے ہنگامی معائنہ
2. مزید حادثات کو روکنے کے لیے عارضی مرمت
3. مکمل سڑک کی تعمیر نو کا منصوبہ
4. مناسب نکاسی آب کا نظام
5. سڑک کی روشنی کی بحالی

رابطہ کی معلومات:
ریفرنس نمبر: {reference_number}
تاریخ: {date}
وقت: {time}
مقام: {area_name}, {city}, {province}

ہم 24 گھنٹوں کے اندر فوری تسلیم اور کارروائی کا منصوبہ توقع رکھتے ہیں۔

آپ کا مخلص،
{area_name} کے تشویش مند شہری
{city}, {country}

---
یہ جائز شہری مشغولیت کے لیے ایک خودکار شکایت کا نظام ہے۔
ریفرنس: {reference_number}`,
	},
	{
		ID:          3,
		Name:        "legal-notice",
		Language:    "en",
		ContentType: HTML,
		Subject:     "LEGAL NOTICE: Citizen Rights Violation - {primary_issue} (Ref: {reference_number})",
		Body: `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.5; color: #222222;">
<h2 style="color: #8b0000;">Formal Legal Notice</h2>
<p>Dear Government Officials,</p>
<p>This communication serves as a formal legal notice regarding the systematic violation of citizen rights through the continued neglect of road infrastructure in the {area_name} of {city}.</p>
<h3>Legal Basis</h3>
<p>This complaint is filed under the following legal frameworks of {country}:</p>
<ul>
{constitutional_articles_items}
{relevant_laws_items}
</ul>
<h3>Violations Documented</h3>
<ul>
{specific_problems_items}
</ul>
<h3>Legal Remedies Sought</h3>
<ol>
<li>Immediate road inspection and temporary repairs</li>
<li>Comprehensive infrastructure development plan</li>
<li>Equal treatment with other areas of {city}</li>
<li>Compensation for vehicle damage caused by road conditions</li>
<li>Implementation of safety measures</li>
</ol>
<h3>Escalation Procedure</h3>
<p>If no satisfactory response is received within 7 days, this matter will be escalated to:</p>
<ul>
{escalation_path_items}
</ul>
<h3>Contact Information</h3>
<table style="border-collapse: collapse;">
<tr><td style="padding: 2px 8px;"><b>Reference Number</b></td><td>{reference_number}</td></tr>
<tr><td style="padding: 2px 8px;"><b>Legal Notice ID</b></td><td>{notice_id}</td></tr>
<tr><td style="padding: 2px 8px;"><b>Date</b></td><td>{date}</td></tr>
<tr><td style="padding: 2px 8px;"><b>Time</b></td><td>{time}</td></tr>
<tr><td style="padding: 2px 8px;"><b>Location</b></td><td>{area_name}, {city}, {province}</td></tr>
</table>
<p>Please acknowledge receipt of this legal notice within 24 hours and provide a detailed response plan within 7 days.</p>
<p>Sincerely,<br>Citizens of {area_name}<br>{city}, {country}</p>
<hr>
<p style="font-size: small; color: #666666;">This is a legitimate legal notice for civic rights protection. Reference: {reference_number}</p>
</body>
</html>`,
	},
}
